//go:build mage

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// pkgLines holds non-blank line counts for one package directory.
type pkgLines struct {
	prod, test int
}

// Stats prints non-blank Go lines per package, split into production and
// test code, followed by totals and the Markdown word count.
func Stats() error {
	byPkg := map[string]*pkgLines{}
	docWords := 0

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if ignoredDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		switch filepath.Ext(path) {
		case ".go":
			n, err := nonBlankLines(path)
			if err != nil {
				return err
			}
			dir := filepath.Dir(path)
			if byPkg[dir] == nil {
				byPkg[dir] = &pkgLines{}
			}
			if strings.HasSuffix(path, "_test.go") {
				byPkg[dir].test += n
			} else {
				byPkg[dir].prod += n
			}
		case ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			docWords += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byPkg))
	for dir := range byPkg {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)

	var total pkgLines
	for _, dir := range dirs {
		c := byPkg[dir]
		fmt.Printf("%-28s %6d prod %6d test\n", dir, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("%-28s %6d prod %6d test\n", "total", total.prod, total.test)
	fmt.Printf("Markdown words: %d\n", docWords)
	return nil
}

// ignoredDir skips hidden, underscore-prefixed, and build output directories.
func ignoredDir(path string) bool {
	if path == "." {
		return false
	}
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "_"):
		return true
	case base == binDir, base == "data", base == "vendor":
		return true
	}
	return false
}

func nonBlankLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	for line := range strings.Lines(string(data)) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}
