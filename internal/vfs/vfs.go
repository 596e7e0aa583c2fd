// Package vfs gives directories, random-access archives, streamed archives
// and archives nested inside archives one read-only view: a Container that
// lazily yields Entries.
//
// Containers are opened through a Registry of Drivers. The first driver that
// matches a locator and opens it wins; drivers that match but fail are
// skipped. The process-wide default list is used by DefaultRegistry and must
// not be changed while a scan is running.
package vfs

import (
	"bytes"
	"io"
	"iter"
	"path"
	"strings"
	"sync"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// Entry is one file inside a container.
type Entry interface {
	// Name is the base name of the entry.
	Name() string
	// RelativePath is the slash-separated path from the container root.
	RelativePath() string
	// Open returns a fresh stream over the content. Entries of sequential
	// containers can be opened once, and only while they are current.
	Open() (io.ReadCloser, error)
}

// Container is an opened directory or archive.
type Container interface {
	// Path is the locator the container was opened from.
	Path() string
	// Entries yields every file entry. Iteration is lazy; a non-nil error
	// reports a problem with one entry or directory and iteration continues
	// unless the consumer stops it.
	Entries() iter.Seq2[Entry, error]
	// Close releases every underlying handle. It is safe to call more than once.
	Close() error
}

// Driver recognizes locators and opens containers for them.
type Driver interface {
	Name() string
	Matches(locator string) bool
	Open(locator string) (Container, error)
}

// ErrOutOfOrder is returned when a sequential entry is opened after the
// container moved past it, or a second time.
var ErrOutOfOrder = errors.ErrOutOfOrder

// closers releases a stack of handles in reverse order, exactly once.
type closers struct {
	once sync.Once
	fns  []func() error
	err  error
}

func (c *closers) push(fn func() error) {
	c.fns = append(c.fns, fn)
}

func (c *closers) close() error {
	c.once.Do(func() {
		for i := len(c.fns) - 1; i >= 0; i-- {
			if err := c.fns[i](); err != nil && c.err == nil {
				c.err = err
			}
		}
		c.fns = nil
	})
	return c.err
}

// entryName returns the last element of a slash path.
func entryName(rel string) string {
	return path.Base(rel)
}

// DottedPath converts a relative path into its dotted form, the form type
// and package filters are written against.
func DottedPath(rel string) string {
	return strings.ReplaceAll(rel, "/", ".")
}

// funcEntry is an Entry backed by an open function.
type funcEntry struct {
	rel  string
	open func() (io.ReadCloser, error)
}

func (e *funcEntry) Name() string                 { return entryName(e.rel) }
func (e *funcEntry) RelativePath() string         { return e.rel }
func (e *funcEntry) Open() (io.ReadCloser, error) { return e.open() }

// NewEntry wraps an open function as an Entry. Useful for tests and for
// callers feeding synthetic content to scanners.
func NewEntry(relPath string, open func() (io.ReadCloser, error)) Entry {
	return &funcEntry{rel: strings.TrimPrefix(relPath, "/"), open: open}
}

// BytesEntry returns an Entry with fixed content.
func BytesEntry(relPath string, data []byte) Entry {
	return NewEntry(relPath, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}
