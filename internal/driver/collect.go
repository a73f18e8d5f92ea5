package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultTarget is the seed file rewritten when no path is given.
const DefaultTarget = "migrations/seed_test_data_part5_cvs.sql"

// DefaultExtensions selects files inside directories passed to CollectFiles.
var DefaultExtensions = []string{".sql"}

// ErrNoFiles is returned when the given paths contain no seed files.
var ErrNoFiles = errors.New("no seed files found")

// CollectFiles expands paths into a sorted list of files. Files named
// explicitly are kept whatever their extension; directories are walked
// recursively for files ending in one of exts (case-insensitive).
// A missing explicit file is kept too, so that its error is reported per file.
func CollectFiles(ctx context.Context, paths, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			addFile(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				// скрытые каталоги (.git, .cache) не обходим
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasExtension(path, exts) {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
