package vfs

import (
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tmerrors "github.com/Aman-CERP/typemap/internal/errors"
)

func TestDirDriver_YieldsRegularFilesWithSlashPaths(t *testing.T) {
	// Given: a small tree
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "com", "acme", "A.java"), []byte("class A {}"))
	writeFile(t, filepath.Join(root, "app.properties"), []byte("k=v"))

	// When: opening it
	d := NewDirDriver(DirOptions{})
	require.True(t, d.Matches(root))
	c, err := d.Open(root)
	require.NoError(t, err)
	defer c.Close()

	// Then: every file appears once with its content
	assert.Equal(t, map[string]string{
		"com/acme/A.java": "class A {}",
		"app.properties":  "k=v",
	}, collect(t, c))
}

func TestDirDriver_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), []byte("target/\n*.tmp\n"))
	writeFile(t, filepath.Join(root, "src", ".gitignore"), []byte("gen/\n"))
	writeFile(t, filepath.Join(root, "src", "A.java"), []byte("x"))
	writeFile(t, filepath.Join(root, "src", "gen", "G.java"), []byte("x"))
	writeFile(t, filepath.Join(root, "target", "A.class"), []byte("x"))
	writeFile(t, filepath.Join(root, "notes.tmp"), []byte("x"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("x"))

	c, err := NewDirDriver(DirOptions{RespectGitignore: true}).Open(root)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{".gitignore", "src/.gitignore", "src/A.java"}, paths(t, c))
}

func TestDirDriver_SkipsSymlinksUnlessFollowing(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, filepath.Join(t.TempDir(), "real.txt"), []byte("x"))
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skip("symlinks unsupported")
	}

	c, err := NewDirDriver(DirOptions{}).Open(root)
	require.NoError(t, err)
	assert.Empty(t, paths(t, c))

	c, err = NewDirDriver(DirOptions{FollowSymlinks: true}).Open(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"link.txt"}, paths(t, c))
}

func TestDirDriver_StopsWhenConsumerStops(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(root, n), []byte(n))
	}
	c, err := NewDirDriver(DirOptions{}).Open(root)
	require.NoError(t, err)

	seen := 0
	for range c.Entries() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestZipDriver_OpensEntriesDirectly(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lib.jar"), zipBytes(t, sample...))

	d := NewZipDriver()
	require.True(t, d.Matches(path))
	assert.False(t, d.Matches(path+".missing.jar"))

	c, err := d.Open(path)
	require.NoError(t, err)

	// Random access: entries can be opened in any order, repeatedly.
	var entries []Entry
	for e, err := range c.Entries() {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 3)
	for i := len(entries) - 1; i >= 0; i-- {
		rc, err := entries[i].Open()
		require.NoError(t, err)
		_ = rc.Close()
	}
	assert.Equal(t, "A.class", entries[0].Name())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestZipDriver_CorruptArchive(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "bad.zip"), []byte("not a zip"))
	_, err := NewZipDriver().Open(path)
	require.Error(t, err)
	assert.Equal(t, tmerrors.ErrCodeContainerOpen, tmerrors.GetCode(err))
}

func TestTarDriver_AllCompressions(t *testing.T) {
	cases := map[string]Compression{
		"lib.tar":     CompressionNone,
		"lib.tar.gz":  CompressionGzip,
		"lib.tgz":     CompressionGzip,
		"lib.tar.zst": CompressionZstd,
		"lib.tar.lz4": CompressionLZ4,
	}
	for name, comp := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := TarCompression(name)
			require.True(t, ok)
			assert.Equal(t, comp, got)

			path := writeFile(t, filepath.Join(t.TempDir(), name), tarBytes(t, comp, sample...))
			d := NewTarDriver()
			require.True(t, d.Matches(path))

			c, err := d.Open(path)
			require.NoError(t, err)
			defer c.Close()

			assert.Equal(t, map[string]string{
				"com/acme/A.class":               "a",
				"com/acme/sub/B.class":           "bb",
				"META-INF/services/x.properties": "ccc",
			}, collect(t, c))
		})
	}
}

func TestStreamContainer_OutOfOrderOpenFails(t *testing.T) {
	// Given: a sequential archive whose entries were all listed first
	path := writeFile(t, filepath.Join(t.TempDir(), "lib.tar"), tarBytes(t, CompressionNone, sample...))
	c, err := NewTarDriver().Open(path)
	require.NoError(t, err)
	defer c.Close()

	var entries []Entry
	for e, err := range c.Entries() {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 3)

	// When: opening an entry the container already passed
	_, err = entries[0].Open()

	// Then: the sequential-order error is reported
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.True(t, tmerrors.IsFatal(err))
}

func TestStreamContainer_SecondOpenAndStaleReadFail(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lib.tar"), tarBytes(t, CompressionNone, sample...))
	c, err := NewTarDriver().Open(path)
	require.NoError(t, err)
	defer c.Close()

	var held io.ReadCloser
	i := 0
	for e, err := range c.Entries() {
		require.NoError(t, err)
		if i == 0 {
			held, err = e.Open()
			require.NoError(t, err)
			_, err = e.Open()
			assert.ErrorIs(t, err, ErrOutOfOrder)
		}
		i++
	}

	_, err = held.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestStreamContainer_EntriesOnlyOnce(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lib.tar"), tarBytes(t, CompressionNone, sample...))
	c, err := NewTarDriver().Open(path)
	require.NoError(t, err)
	defer c.Close()

	paths(t, c)
	for _, err := range c.Entries() {
		assert.ErrorIs(t, err, ErrOutOfOrder)
	}
}

func TestNestedDriver_ZipInZipWithPrefix(t *testing.T) {
	// Given: outer.zip containing lib/inner.jar
	inner := zipBytes(t, sample...)
	outer := writeFile(t, filepath.Join(t.TempDir(), "outer.zip"),
		zipBytes(t, file{"lib/inner.jar", string(inner)}, file{"readme.txt", "r"}))

	d := NewNestedDriver()
	locator := outer + "!/lib/inner.jar!/com/acme"
	require.True(t, d.Matches(locator))

	// When: opening a package inside the inner archive
	c, err := d.Open(locator)
	require.NoError(t, err)

	// Then: only entries under the prefix are yielded, with full paths
	assert.Equal(t, []string{"com/acme/A.class", "com/acme/sub/B.class"}, paths(t, c))
	assert.Equal(t, locator, c.Path())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestNestedDriver_TarInZipAndZipInTar(t *testing.T) {
	tmp := t.TempDir()

	tarInZip := writeFile(t, filepath.Join(tmp, "a.zip"),
		zipBytes(t, file{"deps/x.tar.gz", string(tarBytes(t, CompressionGzip, sample...))}))
	c, err := NewNestedDriver().Open(tarInZip + "!/deps/x.tar.gz")
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 3)
	require.NoError(t, c.Close())

	zipInTar := writeFile(t, filepath.Join(tmp, "b.tar"),
		tarBytes(t, CompressionNone, file{"pad.txt", "p"}, file{"x.jar", string(zipBytes(t, sample...))}))
	c, err = NewNestedDriver().Open(zipInTar + "!/x.jar")
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 3)
	require.NoError(t, c.Close())
}

func TestNestedDriver_SpoolsLargeInnerArchive(t *testing.T) {
	inner := zipBytes(t, sample...)
	outer := writeFile(t, filepath.Join(t.TempDir(), "outer.zip"), zipBytes(t, file{"inner.jar", string(inner)}))
	spool := t.TempDir()

	d := NewNestedDriverWithOptions(NestedOptions{MemoryLimit: 16, TempDir: spool})
	c, err := d.Open(outer + "!/inner.jar")
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 3)

	spooled, _ := filepath.Glob(filepath.Join(spool, "*"))
	assert.Len(t, spooled, 1)

	require.NoError(t, c.Close())
	spooled, _ = filepath.Glob(filepath.Join(spool, "*"))
	assert.Empty(t, spooled)
}

func TestNestedDriver_MissingInnerEntry(t *testing.T) {
	outer := writeFile(t, filepath.Join(t.TempDir(), "outer.zip"), zipBytes(t, sample...))
	_, err := NewNestedDriver().Open(outer + "!/nope.jar")
	require.Error(t, err)
	assert.Equal(t, tmerrors.ErrCodeLocatorNotFound, tmerrors.GetCode(err))
}

type fakeDriver struct {
	name    string
	matches bool
	err     error
	opened  int
}

func (f *fakeDriver) Name() string        { return f.name }
func (f *fakeDriver) Matches(string) bool { return f.matches }

func (f *fakeDriver) Open(l string) (Container, error) {
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	return &fakeContainer{path: l}, nil
}

type fakeContainer struct{ path string }

func (c *fakeContainer) Path() string { return c.path }
func (c *fakeContainer) Close() error { return nil }
func (c *fakeContainer) Entries() iter.Seq2[Entry, error] {
	return func(func(Entry, error) bool) {}
}

func TestRegistry_FirstWorkingDriverWins(t *testing.T) {
	failing := &fakeDriver{name: "failing", matches: true, err: errors.New("boom")}
	skipped := &fakeDriver{name: "skipped", matches: false}
	working := &fakeDriver{name: "working", matches: true}
	later := &fakeDriver{name: "later", matches: true}

	r := NewRegistry(skipped, failing, working, later)
	c, err := r.Open("x://thing")
	require.NoError(t, err)
	assert.Equal(t, "x://thing", c.Path())
	assert.Equal(t, 1, failing.opened)
	assert.Equal(t, 0, skipped.opened)
	assert.Equal(t, 1, working.opened)
	assert.Equal(t, 0, later.opened)
}

func TestRegistry_NoMatchNamesLocator(t *testing.T) {
	r := NewRegistry(&fakeDriver{name: "never"})
	_, err := r.Open("/nowhere/thing.rar")
	require.Error(t, err)
	assert.ErrorIs(t, err, tmerrors.ErrNoMatchingDriver)
	assert.Contains(t, err.Error(), "/nowhere/thing.rar")
}

func TestRegistry_PrependAppend(t *testing.T) {
	a, b, c := &fakeDriver{name: "a"}, &fakeDriver{name: "b"}, &fakeDriver{name: "c"}
	r := NewRegistry(b)
	r.Prepend(a)
	r.Append(c)

	var names []string
	for _, d := range r.Drivers() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDefaultDrivers_AddPrependsAndResetRestores(t *testing.T) {
	t.Cleanup(func() { SetDefaultDrivers(nil) })

	custom := &fakeDriver{name: "custom", matches: true}
	AddDefaultDriver(custom)
	assert.Equal(t, "custom", DefaultDrivers()[0].Name())

	c, err := DefaultRegistry().Open("anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", c.Path())

	SetDefaultDrivers(nil)
	assert.Equal(t, "nested", DefaultDrivers()[0].Name())
}

func TestDefaultRegistry_OpensRealLocators(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "classes")
	writeFile(t, filepath.Join(dir, "A.class"), []byte("x"))
	jar := writeFile(t, filepath.Join(tmp, "lib.jar"), zipBytes(t, sample...))
	tgz := writeFile(t, filepath.Join(tmp, "lib.tgz"), tarBytes(t, CompressionGzip, sample...))

	for _, loc := range []string{dir, jar, tgz, "file:" + jar, jar + "!/com/acme/sub"} {
		c, err := DefaultRegistry().Open(loc)
		require.NoError(t, err, loc)
		assert.NotEmpty(t, paths(t, c), loc)
		require.NoError(t, c.Close())
	}
}
