package vfs

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// NestedSeparator marks the boundary between an archive and a path inside it.
const NestedSeparator = "!/"

// DefaultNestedMemoryLimit is the largest inner zip archive buffered in memory.
const DefaultNestedMemoryLimit int64 = 64 << 20

// NestedOptions configures NestedDriver.
type NestedOptions struct {
	// MemoryLimit is the largest inner random-access archive kept in memory.
	// Larger ones are spooled to a temp file. Zero means the default.
	MemoryLimit int64
	// TempDir is where spooled archives go. Empty means os.TempDir.
	TempDir string
}

// NestedDriver opens archives inside archives, addressed as
// outer.zip!/lib/inner.jar!/com/acme. A trailing segment that is not an
// archive restricts the innermost container to entries under that path.
type NestedDriver struct {
	opts NestedOptions
}

// NewNestedDriver creates a nested driver with default options.
func NewNestedDriver() *NestedDriver {
	return NewNestedDriverWithOptions(NestedOptions{})
}

// NewNestedDriverWithOptions creates a nested driver.
func NewNestedDriverWithOptions(opts NestedOptions) *NestedDriver {
	if opts.MemoryLimit <= 0 {
		opts.MemoryLimit = DefaultNestedMemoryLimit
	}
	return &NestedDriver{opts: opts}
}

// Name implements Driver.
func (d *NestedDriver) Name() string { return "nested" }

// Matches implements Driver.
func (d *NestedDriver) Matches(locator string) bool {
	i := strings.Index(locator, NestedSeparator)
	return i > 0 && isArchiveName(locator[:i])
}

func isArchiveName(name string) bool {
	if isZipName(name) {
		return true
	}
	_, ok := TarCompression(name)
	return ok
}

// Open implements Driver.
func (d *NestedDriver) Open(locator string) (Container, error) {
	segments := strings.Split(locator, NestedSeparator)
	outer := segments[0]

	var (
		cur Container
		err error
	)
	if isZipName(outer) {
		cur, err = NewZipDriver().Open(outer)
	} else {
		cur, err = NewTarDriver().Open(outer)
	}
	if err != nil {
		return nil, err
	}

	nc := &nestedContainer{locator: locator}
	nc.layers.push(cur.Close)

	name := outer
	for i, seg := range segments[1:] {
		seg = strings.Trim(seg, "/")
		last := i == len(segments)-2

		if last && !isArchiveName(seg) {
			nc.prefix = seg
			break
		}
		if seg == "" {
			continue
		}

		name = name + NestedSeparator + seg
		inner, err := d.openInner(cur, seg, name)
		if err != nil {
			_ = nc.layers.close()
			return nil, err
		}
		nc.layers.push(inner.Close)
		cur = inner
	}

	nc.top = cur
	return nc, nil
}

// openInner opens the archive member seg of parent as a container.
func (d *NestedDriver) openInner(parent Container, seg, name string) (Container, error) {
	entry, err := findEntry(parent, seg)
	if err != nil {
		return nil, err
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}

	if comp, ok := TarCompression(seg); ok {
		return NewStreamContainer(name, rc, comp, rc.Close)
	}

	// Random-access archives need an io.ReaderAt.
	return d.bufferZip(name, rc)
}

func (d *NestedDriver) bufferZip(name string, rc io.ReadCloser) (Container, error) {
	defer rc.Close()

	head, err := io.ReadAll(io.LimitReader(rc, d.opts.MemoryLimit+1))
	if err != nil {
		return nil, errors.New(errors.ErrCodeEntryRead, "read nested archive "+name, err)
	}
	if int64(len(head)) <= d.opts.MemoryLimit {
		return NewZipContainer(name, bytes.NewReader(head), int64(len(head)))
	}

	tmp, err := os.CreateTemp(d.opts.TempDir, "typemap-nested-*.zip")
	if err != nil {
		return nil, errors.New(errors.ErrCodeNestedTooLarge,
			fmt.Sprintf("nested archive %s exceeds %d bytes and cannot be spooled", name, d.opts.MemoryLimit), err)
	}
	cleanup := func() error {
		cerr := tmp.Close()
		if rerr := os.Remove(tmp.Name()); rerr != nil && cerr == nil {
			cerr = rerr
		}
		return cerr
	}

	size, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), rc))
	if err != nil {
		_ = cleanup()
		return nil, errors.New(errors.ErrCodeEntryRead, "spool nested archive "+name, err)
	}
	return NewZipContainer(name, tmp, size, cleanup)
}

// findEntry locates the member rel in c.
func findEntry(c Container, rel string) (Entry, error) {
	if zc, ok := c.(*zipContainer); ok {
		if f := zc.file(rel); f != nil {
			return NewEntry(rel, f.Open), nil
		}
	} else {
		for e, err := range c.Entries() {
			if err != nil {
				return nil, err
			}
			if e.RelativePath() == rel {
				return e, nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeLocatorNotFound,
		fmt.Sprintf("%s not found in %s", rel, c.Path()), nil)
}

// nestedContainer is the innermost layer plus every layer above it.
type nestedContainer struct {
	locator string
	top     Container
	prefix  string
	layers  closers
}

func (c *nestedContainer) Path() string { return c.locator }

func (c *nestedContainer) Close() error { return c.layers.close() }

func (c *nestedContainer) Entries() iter.Seq2[Entry, error] {
	if c.prefix == "" {
		return c.top.Entries()
	}
	dir := c.prefix + "/"
	return func(yield func(Entry, error) bool) {
		for e, err := range c.top.Entries() {
			if err == nil && e.RelativePath() != c.prefix && !strings.HasPrefix(e.RelativePath(), dir) {
				continue
			}
			if !yield(e, err) {
				return
			}
		}
	}
}
