package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandGlobs expands case file paths and glob patterns into a sorted,
// de-duplicated list. A pattern that matches nothing is an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no file patterns provided")
	}

	files := make([]string, 0, len(patterns))
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		if !hasGlobMeta(pattern) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, err
			}
			add(pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no matches for pattern %q", pattern)
		}
		for _, match := range matches {
			add(match)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadCaseFiles expands patterns and concatenates the files' contents in
// sorted path order, separated by a blank line. Each file is trimmed; empty
// files contribute nothing.
func ReadCaseFiles(patterns []string) (string, error) {
	files, err := ExpandGlobs(patterns)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", f, err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
