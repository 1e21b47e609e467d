package source

import (
	"os"
	"path/filepath"
	"sort"
)

// ScanDir walks root and returns every *.jsonl file below it, sorted by
// path. A missing root yields no files and no error.
func ScanDir(root string) ([]DiscoveredFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(root) == ".jsonl" {
			return []DiscoveredFile{{Path: root, Name: filepath.Base(root)}}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		files = append(files, DiscoveredFile{Path: path, Name: rel})
		return nil
	})

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, err
}
