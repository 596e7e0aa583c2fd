package vfs

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/filter"
)

// gitignoreCacheSize bounds the number of parsed .gitignore files kept.
const gitignoreCacheSize = 1000

// DirOptions configures DirDriver.
type DirOptions struct {
	// RespectGitignore skips entries matched by .gitignore files found in
	// the tree, and the .git directory itself.
	RespectGitignore bool
	// FollowSymlinks yields symlinks that resolve to regular files.
	FollowSymlinks bool
}

// DirDriver opens plain directories.
type DirDriver struct {
	opts DirOptions
	// ignores caches matchers by absolute directory and base. A matcher with no
	// patterns marks a directory without .gitignore.
	ignores *lru.Cache[string, *filter.GlobMatcher]
}

// NewDirDriver creates a directory driver.
func NewDirDriver(opts DirOptions) *DirDriver {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *filter.GlobMatcher](gitignoreCacheSize)
	return &DirDriver{opts: opts, ignores: cache}
}

// Name implements Driver.
func (d *DirDriver) Name() string { return "dir" }

// Matches implements Driver.
func (d *DirDriver) Matches(locator string) bool {
	info, err := os.Stat(locator)
	return err == nil && info.IsDir()
}

// Open implements Driver.
func (d *DirDriver) Open(locator string) (Container, error) {
	abs, err := filepath.Abs(locator)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidLocator, "invalid directory locator "+locator, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.New(errors.ErrCodeLocatorNotFound, "directory not found: "+locator, err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidLocator, locator+" is not a directory", nil)
	}
	return &dirContainer{driver: d, locator: locator, root: abs}, nil
}

// InvalidateGitignoreCache drops every cached matcher.
func (d *DirDriver) InvalidateGitignoreCache() {
	d.ignores.Purge()
}

type dirContainer struct {
	driver  *DirDriver
	locator string
	root    string
}

func (c *dirContainer) Path() string { return c.locator }

func (c *dirContainer) Close() error { return nil }

func (c *dirContainer) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		_ = filepath.WalkDir(c.root, func(p string, de fs.DirEntry, err error) error {
			if err != nil {
				if !yield(nil, errors.New(errors.ErrCodeEntryRead, "walk "+p, err)) {
					return fs.SkipAll
				}
				if de != nil && de.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			rel, relErr := filepath.Rel(c.root, p)
			if relErr != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if de.IsDir() {
				if c.driver.opts.RespectGitignore && (de.Name() == ".git" || c.ignored(rel, true)) {
					return fs.SkipDir
				}
				return nil
			}

			if de.Type()&fs.ModeSymlink != 0 {
				if !c.driver.opts.FollowSymlinks {
					return nil
				}
				target, statErr := os.Stat(p)
				if statErr != nil || !target.Mode().IsRegular() {
					return nil
				}
			} else if !de.Type().IsRegular() {
				return nil
			}

			if c.driver.opts.RespectGitignore && c.ignored(rel, false) {
				return nil
			}

			abs := p
			entry := NewEntry(rel, func() (io.ReadCloser, error) {
				f, err := os.Open(abs)
				if err != nil {
					return nil, errors.New(errors.ErrCodeEntryRead, "open "+abs, err)
				}
				return f, nil
			})
			if !yield(entry, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// ignored checks rel against the root .gitignore and every .gitignore in
// its ancestor directories.
func (c *dirContainer) ignored(rel string, isDir bool) bool {
	if c.matcher(c.root, "").Match(rel, isDir) {
		return true
	}

	parts := strings.Split(rel, "/")
	dir := c.root
	for i := 0; i < len(parts)-1; i++ {
		dir = filepath.Join(dir, parts[i])
		base := strings.Join(parts[:i+1], "/")
		if c.matcher(dir, base).Match(rel, isDir) {
			return true
		}
	}
	return false
}

func (c *dirContainer) matcher(dir, base string) *filter.GlobMatcher {
	key := dir + "\x00" + base
	if m, ok := c.driver.ignores.Get(key); ok {
		return m
	}

	m := filter.NewGlobMatcher()
	file := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(file); err == nil {
		if err := m.AddFromFile(file, base); err != nil {
			m = filter.NewGlobMatcher()
		}
	}
	c.driver.ignores.Add(key, m)
	return m
}

func (c *dirContainer) String() string {
	return fmt.Sprintf("dir(%s)", c.root)
}
