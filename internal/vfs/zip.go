package vfs

import (
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// zipExtensions are the random-access archive suffixes ZipDriver claims.
var zipExtensions = []string{".zip", ".jar", ".war", ".ear", ".sar", ".har", ".par", ".apk", ".aar"}

// isZipName reports whether name carries a zip-family extension.
func isZipName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range zipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ZipDriver opens random-access archives from the file system.
type ZipDriver struct{}

// NewZipDriver creates a zip driver.
func NewZipDriver() *ZipDriver { return &ZipDriver{} }

// Name implements Driver.
func (d *ZipDriver) Name() string { return "zip" }

// Matches implements Driver.
func (d *ZipDriver) Matches(locator string) bool {
	if !isZipName(locator) {
		return false
	}
	info, err := os.Stat(locator)
	return err == nil && info.Mode().IsRegular()
}

// Open implements Driver.
func (d *ZipDriver) Open(locator string) (Container, error) {
	rc, err := zip.OpenReader(filepath.Clean(locator))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeLocatorNotFound, "archive not found: "+locator, err)
		}
		return nil, errors.New(errors.ErrCodeContainerOpen, "open archive "+locator, err)
	}

	c := &zipContainer{locator: locator, reader: &rc.Reader}
	c.closers.push(rc.Close)
	return c, nil
}

// NewZipContainer exposes a zip archive held by r. The extra closers run on
// Close in reverse order, and immediately if r is not a valid archive.
func NewZipContainer(locator string, r io.ReaderAt, size int64, extra ...func() error) (Container, error) {
	c := &zipContainer{locator: locator}
	for _, fn := range extra {
		c.closers.push(fn)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		_ = c.closers.close()
		return nil, errors.New(errors.ErrCodeArchiveCorrupt, "read archive "+locator, err)
	}
	c.reader = zr
	return c, nil
}

type zipContainer struct {
	locator string
	reader  *zip.Reader
	closers closers
}

func (c *zipContainer) Path() string { return c.locator }

func (c *zipContainer) Close() error { return c.closers.close() }

func (c *zipContainer) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, f := range c.reader.File {
			if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
				continue
			}
			file := f
			entry := NewEntry(file.Name, func() (io.ReadCloser, error) {
				rc, err := file.Open()
				if err != nil {
					return nil, errors.New(errors.ErrCodeEntryRead, "open "+file.Name+" in "+c.locator, err)
				}
				return rc, nil
			})
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// file returns the archive member named rel.
func (c *zipContainer) file(rel string) *zip.File {
	for _, f := range c.reader.File {
		if f.Name == rel {
			return f
		}
	}
	return nil
}
