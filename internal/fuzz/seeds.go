package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

// builtinSeeds cover the shapes seed files actually contain.
var builtinSeeds = []string{
	"",
	"ARRAY['a','b']",
	`ARRAY["a", 'b']`,
	`ARRAY[]`,
	`ARRAY[] || ARRAY['z']`,
	`array["lower"]`,
	`ARRAY[1, 'a', 2 ,3]`,
	`ARRAY["it's"]`,
	`ARRAY["a']`,
	"ARRAY[\"multi\",\n  'line']",
	"ARRAY[ARRAY['nested']]",
	"\xEF\xBB\xBFARRAY[\"bom\"];\r\nARRAY['crlf']\r\n",
	`ARRAY["Café", "日本"]`,
	`ARRAY[`,
	`ARRAY[x] ARRAY['`,
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.sql файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
