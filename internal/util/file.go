package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultImageExt lists the page formats that are downloaded and assembled.
var DefaultImageExt = []string{"jpg", "jpeg", "png", "webp", "gif"}

// NormalizeExtList lowercases extensions and strips leading dots.
func NormalizeExtList(list []string) []string {
	out := []string{}
	for _, ext := range list {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			out = append(out, ext)
		}
	}

	return out
}

// ListImageFiles returns the regular files in dir whose extension is in
// allowExt (case-insensitive), sorted by file name.
func ListImageFiles(dir string, allowExt []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	allowed := map[string]bool{}
	for _, ext := range NormalizeExtList(allowExt) {
		allowed[ext] = true
	}

	names := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if !allowed[ext] {
			continue
		}

		names = append(names, e.Name())
	}

	sort.Strings(names)

	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(dir, n)
	}

	return files, nil
}

// ReplaceFile moves tmp over dst, removing tmp when the rename fails.
func ReplaceFile(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
