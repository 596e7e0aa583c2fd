package vfs

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// file is one fixture member.
type file struct {
	name string
	body string
}

func zipBytes(t *testing.T, files ...file) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarBytes(t *testing.T, comp Compression, files ...file) []byte {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	for _, f := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.name,
			Mode:     0o644,
			Size:     int64(len(f.body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var out bytes.Buffer
	var w io.WriteCloser
	switch comp {
	case CompressionGzip:
		w = gzip.NewWriter(&out)
	case CompressionZstd:
		zw, err := zstd.NewWriter(&out)
		require.NoError(t, err)
		w = zw
	case CompressionLZ4:
		w = lz4.NewWriter(&out)
	default:
		return raw.Bytes()
	}
	_, err := w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// collect drains a container into path -> content, failing on entry errors.
func collect(t *testing.T, c Container) map[string]string {
	t.Helper()
	out := map[string]string{}
	for e, err := range c.Entries() {
		require.NoError(t, err)
		rc, err := e.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[e.RelativePath()] = string(data)
	}
	return out
}

func paths(t *testing.T, c Container) []string {
	t.Helper()
	var out []string
	for e, err := range c.Entries() {
		require.NoError(t, err)
		out = append(out, e.RelativePath())
	}
	sort.Strings(out)
	return out
}

var sample = []file{
	{"com/acme/A.class", "a"},
	{"com/acme/sub/B.class", "bb"},
	{"META-INF/services/x.properties", "ccc"},
}
