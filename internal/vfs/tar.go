package vfs

import (
	"archive/tar"
	"io"
	"iter"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// Compression identifies the codec wrapped around a tar stream.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var tarSuffixes = []struct {
	suffix string
	comp   Compression
}{
	{".tar.gz", CompressionGzip},
	{".tgz", CompressionGzip},
	{".tar.zst", CompressionZstd},
	{".tzst", CompressionZstd},
	{".tar.lz4", CompressionLZ4},
	{".tar", CompressionNone},
}

// TarCompression returns the codec implied by name and whether name is a
// tar-family archive at all.
func TarCompression(name string) (Compression, bool) {
	lower := strings.ToLower(name)
	for _, s := range tarSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.comp, true
		}
	}
	return CompressionNone, false
}

// TarDriver opens sequential tar archives, optionally compressed.
type TarDriver struct{}

// NewTarDriver creates a tar driver.
func NewTarDriver() *TarDriver { return &TarDriver{} }

// Name implements Driver.
func (d *TarDriver) Name() string { return "tar" }

// Matches implements Driver.
func (d *TarDriver) Matches(locator string) bool {
	if _, ok := TarCompression(locator); !ok {
		return false
	}
	info, err := os.Stat(locator)
	return err == nil && info.Mode().IsRegular()
}

// Open implements Driver.
func (d *TarDriver) Open(locator string) (Container, error) {
	comp, _ := TarCompression(locator)

	f, err := os.Open(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeLocatorNotFound, "archive not found: "+locator, err)
		}
		return nil, errors.New(errors.ErrCodeContainerOpen, "open archive "+locator, err)
	}

	return NewStreamContainer(locator, f, comp, f.Close)
}

// decompress wraps r with the codec for comp.
func decompress(r io.Reader, comp Compression) (io.Reader, func() error, error) {
	switch comp {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil, nil
	default:
		return r, nil, nil
	}
}

// NewStreamContainer exposes a tar stream read from r as a sequential
// container. Entries are discovered lazily from headers. An entry's content
// can be opened once, and only while it is the entry most recently yielded;
// anything else fails with ErrOutOfOrder. The extra closers run on Close
// after the decompressor is released, in reverse order, and immediately if
// the stream cannot be opened.
func NewStreamContainer(locator string, r io.Reader, comp Compression, extra ...func() error) (Container, error) {
	c := &streamContainer{locator: locator}
	for _, fn := range extra {
		c.closers.push(fn)
	}

	dr, closeFn, err := decompress(r, comp)
	if err != nil {
		_ = c.closers.close()
		return nil, errors.New(errors.ErrCodeArchiveCorrupt, "read "+comp.String()+" stream "+locator, err)
	}
	if closeFn != nil {
		c.closers.push(closeFn)
	}
	c.reader = tar.NewReader(dr)
	return c, nil
}

type streamContainer struct {
	locator string
	reader  *tar.Reader
	closers closers

	mu       sync.Mutex
	started  bool
	current  int // index of the entry the reader is positioned in
	opened   bool
	finished bool
}

func (c *streamContainer) Path() string { return c.locator }

func (c *streamContainer) Close() error {
	c.mu.Lock()
	c.finished = true
	c.current = -1
	c.mu.Unlock()
	return c.closers.close()
}

func (c *streamContainer) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		c.mu.Lock()
		if c.started {
			c.mu.Unlock()
			yield(nil, errors.New(errors.ErrCodeEntryOutOfOrder,
				"entries of sequential archive "+c.locator+" can only be listed once", nil))
			return
		}
		c.started = true
		c.current = -1
		c.mu.Unlock()

		for idx := 0; ; {
			hdr, err := c.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, errors.New(errors.ErrCodeArchiveCorrupt, "read header in "+c.locator, err))
				return
			}
			if !hdr.FileInfo().Mode().IsRegular() {
				continue
			}

			c.mu.Lock()
			c.current = idx
			c.opened = false
			c.mu.Unlock()

			entry := &streamEntry{c: c, idx: idx, rel: cleanTarName(hdr.Name)}
			idx++
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// next advances to the following header; the previous entry becomes stale.
func (c *streamContainer) next() (*tar.Header, error) {
	c.mu.Lock()
	c.current = -1
	finished := c.finished
	c.mu.Unlock()
	if finished {
		return nil, io.EOF
	}

	hdr, err := c.reader.Next()
	if err == io.EOF {
		c.mu.Lock()
		c.finished = true
		c.mu.Unlock()
	}
	return hdr, err
}

func cleanTarName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

type streamEntry struct {
	c   *streamContainer
	idx int
	rel string
}

func (e *streamEntry) Name() string         { return entryName(e.rel) }
func (e *streamEntry) RelativePath() string { return e.rel }

func (e *streamEntry) Open() (io.ReadCloser, error) {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()

	if e.c.current != e.idx || e.c.opened {
		return nil, errors.New(errors.ErrCodeEntryOutOfOrder,
			"entry "+e.rel+" of sequential archive "+e.c.locator+" is no longer available", nil)
	}
	e.c.opened = true
	return &streamReader{e: e}, nil
}

// streamReader reads the tar body of one entry while it is current.
type streamReader struct {
	e      *streamEntry
	closed bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	c := r.e.c
	c.mu.Lock()
	stale := r.closed || c.current != r.e.idx
	c.mu.Unlock()
	if stale {
		return 0, errors.New(errors.ErrCodeEntryOutOfOrder,
			"stream for "+r.e.rel+" read after the archive moved on", nil)
	}
	return c.reader.Read(p)
}

func (r *streamReader) Close() error {
	r.closed = true
	return nil
}
