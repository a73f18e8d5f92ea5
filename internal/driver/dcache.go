package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Verdict format changes
const diskCacheSchemaVersion uint16 = 1

// CacheApp is the directory name used under the user cache directory.
const CacheApp = "seedfix"

// DiskCache хранит вердикты по содержимому файлов на диске.
// Ключ: дайджест содержимого вместе с опциями нормализации.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Verdict records that content with a given digest needs no rewrite and
// produces no diagnostics.
type Verdict struct {
	Schema   uint16
	Path     string // last path seen with this content, informational
	Literals int
	Checked  time.Time
}

// CacheDir returns the cache location for app without creating it.
func CacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	dir, err := CacheDir(app)
	if err != nil {
		return nil, err
	}
	return OpenDiskCacheAt(dir)
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первому байту, чтобы не складывать всё в одну директорию
	return filepath.Join(c.dir, "verdicts", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a verdict to the disk cache.
func (c *DiskCache) Put(key Digest, v *Verdict) (err error) {
	if c == nil || v == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	v.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(v); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads a verdict. Entries written by another schema version are
// reported as missing.
func (c *DiskCache) Get(key Digest, out *Verdict) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var v Verdict
	if err := msgpack.NewDecoder(f).Decode(&v); err != nil {
		return false, err
	}
	if v.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	*out = v
	return true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, потом удалим: параллельный Put не увидит полуудалённое дерево
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
