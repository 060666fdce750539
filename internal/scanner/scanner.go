// Package scanner discovers plugin files in a content directory.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// pluginExtensions are the recognized plugin suffixes, lower-case
var pluginExtensions = []string{".esm", ".esp", ".esl"}

// Result is the outcome of one directory scan
type Result struct {
	// Paths are full paths, in enumeration order
	Paths []string
	// Names are the file names matching Paths
	Names []string
	// TotalSize is the combined size of the discovered files in bytes
	TotalSize int64
}

// Len returns the number of discovered plugins
func (r *Result) Len() int { return len(r.Names) }

// IsPluginFile reports whether name carries a plugin extension, ignoring case
func IsPluginFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range pluginExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Scan lists the regular files directly inside dir that are plugins.
// Entries are returned in directory enumeration order. Symlinks are followed;
// names that are not valid UTF-8 are skipped.
func Scan(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read plugin directory: %w", err)
	}

	res := &Result{}
	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) || !IsPluginFile(name) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		res.Paths = append(res.Paths, path)
		res.Names = append(res.Names, name)
		res.TotalSize += info.Size()
	}
	return res, nil
}
