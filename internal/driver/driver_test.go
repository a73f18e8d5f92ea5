package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfix/internal/diag"
	"seedfix/internal/observ"
)

const (
	messySeed     = "INSERT INTO cvs (skills) VALUES (ARRAY[\"Go\", 'SQL']);\n"
	canonicalSeed = "INSERT INTO cvs (skills) VALUES (ARRAY['Go','SQL']);\n"
)

func writeSeed(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), mode))
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "b.sql", "", 0o644)
	writeSeed(t, dir, "nested/a.SQL", "", 0o644)
	writeSeed(t, dir, "notes.txt", "", 0o644)
	writeSeed(t, dir, ".git/hook.sql", "", 0o644)
	explicit := writeSeed(t, dir, "data.txt", "", 0o644)

	files, err := CollectFiles(context.Background(), []string{dir, explicit, filepath.Join(dir, "b.sql")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.sql"),
		filepath.Join(dir, "data.txt"),
		filepath.Join(dir, "nested", "a.SQL"),
	}, files)
}

func TestCollectFilesEmpty(t *testing.T) {
	_, err := CollectFiles(context.Background(), []string{t.TempDir()}, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestNormalizePathsWrites(t *testing.T) {
	dir := t.TempDir()
	messy := writeSeed(t, dir, "messy.sql", messySeed, 0o600)
	clean := writeSeed(t, dir, "clean.sql", canonicalSeed, 0o644)
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(clean, past, past))

	timer := observ.NewTimer()
	run, err := NormalizePaths(context.Background(), []string{dir}, NormalizeOptions{Jobs: 2, Timer: timer})
	require.NoError(t, err)
	require.False(t, run.Failed())

	assert.Equal(t, canonicalSeed, readFile(t, messy))
	info, err := os.Stat(messy)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(clean)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "unchanged file must not be rewritten")

	sum := run.Summary()
	assert.Equal(t, Summary{Files: 2, Changed: 1, Literals: 2, Rewrites: 1}, sum)

	names := make([]string, 0)
	for _, p := range timer.Report().Phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"collect", "load", "normalize", "write"}, names)
}

func TestNormalizePathsCheckAndStdout(t *testing.T) {
	dir := t.TempDir()
	messy := writeSeed(t, dir, "messy.sql", messySeed, 0o644)

	run, err := NormalizePaths(context.Background(), []string{messy}, NormalizeOptions{Check: true})
	require.NoError(t, err)
	require.Len(t, run.Files, 1)
	assert.True(t, run.Files[0].Changed)
	assert.Equal(t, messySeed, readFile(t, messy))

	run, err = NormalizePaths(context.Background(), []string{messy}, NormalizeOptions{Stdout: true})
	require.NoError(t, err)
	assert.Equal(t, canonicalSeed, string(run.Files[0].Output))
	assert.Equal(t, messySeed, readFile(t, messy))
}

func TestNormalizePathsPerFileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeSeed(t, dir, "good.sql", messySeed, 0o644)
	broken := writeSeed(t, dir, "broken.sql", "ARRAY[\"a\", \xff]", 0o644)
	missing := filepath.Join(dir, "missing.sql")

	run, err := NormalizePaths(context.Background(), []string{good, broken, missing}, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, run.Files, 3)
	assert.True(t, run.Failed())

	byPath := map[string]*FileResult{}
	for i := range run.Files {
		byPath[run.Files[i].Path] = &run.Files[i]
	}
	assert.NoError(t, byPath[good].Err)
	assert.Equal(t, canonicalSeed, readFile(t, good))

	assert.True(t, errors.Is(byPath[missing].Err, os.ErrNotExist))
	assert.Equal(t, "no such file or directory", byPath[missing].ErrorText())

	assert.Error(t, byPath[broken].Err)
	assert.Equal(t, "invalid UTF-8 at byte offset 11", byPath[broken].ErrorText())
	assert.Equal(t, "ARRAY[\"a\", \xff]", readFile(t, broken), "undecodable file must not be written")

	codes := map[diag.Code]int{}
	for _, d := range run.Bag.Items() {
		codes[d.Code]++
	}
	assert.Equal(t, 1, codes[diag.IOLoadFileError])
	assert.Equal(t, 1, codes[diag.IOInvalidEncoding])
}

func TestNormalizePathsWarningsAsErrors(t *testing.T) {
	dir := t.TempDir()
	lossy := writeSeed(t, dir, "lossy.sql", "ARRAY[1, 'a']", 0o644)
	messy := writeSeed(t, dir, "messy.sql", messySeed, 0o644)

	run, err := NormalizePaths(context.Background(), []string{dir}, NormalizeOptions{WarningsAsErrors: true})
	require.NoError(t, err)
	assert.ErrorIs(t, run.Err, ErrWarningsAsErrors)
	assert.True(t, run.Bag.HasErrors())
	assert.Equal(t, "ARRAY[1, 'a']", readFile(t, lossy))
	assert.Equal(t, messySeed, readFile(t, messy), "nothing is written once warnings fail the run")

	run, err = NormalizePaths(context.Background(), []string{dir}, NormalizeOptions{})
	require.NoError(t, err)
	assert.Nil(t, run.Err)
	assert.True(t, run.Bag.HasWarnings())
	assert.Equal(t, "ARRAY['a']", readFile(t, lossy))
}

func TestNormalizePathsCache(t *testing.T) {
	dir := t.TempDir()
	clean := writeSeed(t, dir, "clean.sql", canonicalSeed, 0o644)
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	opts := NormalizeOptions{Cache: cache}
	run, err := NormalizePaths(context.Background(), []string{clean}, opts)
	require.NoError(t, err)
	assert.False(t, run.Files[0].Cached)

	run, err = NormalizePaths(context.Background(), []string{clean}, opts)
	require.NoError(t, err)
	assert.True(t, run.Files[0].Cached)
	assert.Equal(t, 1, run.Files[0].Literals)

	opts.Unicode = "nfc"
	run, err = NormalizePaths(context.Background(), []string{clean}, opts)
	require.NoError(t, err)
	assert.False(t, run.Files[0].Cached, "options are part of the key")
}

func TestNormalizePathsProgress(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "a.sql", messySeed, 0o644)
	writeSeed(t, dir, "b.sql", canonicalSeed, 0o644)

	var mu sync.Mutex
	final := map[string]Event{}
	sink := SinkFunc(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Stage == StageWrite && (ev.Status == StatusDone || ev.Status == StatusError) {
			final[filepath.Base(ev.File)] = ev
		}
	})

	_, err := NormalizePaths(context.Background(), []string{dir}, NormalizeOptions{Progress: sink})
	require.NoError(t, err)
	require.Len(t, final, 2)
	assert.True(t, final["a.sql"].Changed)
	assert.False(t, final["b.sql"].Changed)
}

func TestNormalizePathsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NormalizePaths(ctx, []string{t.TempDir()}, NormalizeOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "c"))
	require.NoError(t, err)

	key := combineDigest([32]byte{1}, "none")
	var v Verdict
	ok, err := cache.Get(key, &v)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(key, &Verdict{Path: "a.sql", Literals: 3}))
	ok, err = cache.Get(key, &v)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.sql", v.Path)
	assert.Equal(t, 3, v.Literals)

	require.NoError(t, cache.DropAll())
	ok, err = cache.Get(key, &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.DirExists(t, cache.Dir())
}

func TestCombineDigestSeparatesParts(t *testing.T) {
	a := combineDigest([32]byte{}, "ab", "c")
	b := combineDigest([32]byte{}, "a", "bc")
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 64)
}

func TestNormalizePathsFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := writeSeed(t, dir, "real.sql", messySeed, 0o644)
	link := filepath.Join(dir, "link.sql")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	run, err := NormalizePaths(context.Background(), []string{link}, NormalizeOptions{})
	require.NoError(t, err)
	require.NoError(t, run.Files[0].Err)
	assert.True(t, run.Files[0].Changed)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link must survive the rewrite")
	assert.Equal(t, canonicalSeed, readFile(t, target))
}

func TestNormalizePathsReadOnlyFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	ro := writeSeed(t, dir, "ro.sql", messySeed, 0o444)

	run, err := NormalizePaths(context.Background(), []string{ro}, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, run.Files, 1)
	res := run.Files[0]

	assert.True(t, run.Failed())
	assert.True(t, errors.Is(res.Err, os.ErrPermission))
	assert.False(t, res.Changed)
	assert.Equal(t, "permission denied", res.ErrorText())
	assert.Equal(t, messySeed, readFile(t, ro))

	var found bool
	for _, d := range run.Bag.Items() {
		if d.Code == diag.IOWriteFileError {
			found = true
			assert.Equal(t, "cannot write file: permission denied", d.Message)
		}
	}
	assert.True(t, found, "write failure must be reported as %s", diag.IOWriteFileError)

	info, err := os.Stat(ro)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestWriteSeedFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "new.sql")
	require.NoError(t, writeSeedFile(p, []byte("one")))
	assert.Equal(t, "one", readFile(t, p))

	require.NoError(t, os.Chmod(p, 0o640))
	require.NoError(t, writeSeedFile(p, []byte("two")))
	assert.Equal(t, "two", readFile(t, p))
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
