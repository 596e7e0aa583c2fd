package filter

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatcher_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{name: "exact filename", pattern: "foo.txt", path: "foo.txt", want: true},
		{name: "filename in subdir", pattern: "foo.txt", path: "a/b/foo.txt", want: true},
		{name: "filename no match", pattern: "foo.txt", path: "bar.txt", want: false},
		{name: "extension wildcard", pattern: "*.class", path: "com/acme/A.class", want: true},
		{name: "extension wildcard miss", pattern: "*.class", path: "com/acme/A.java", want: false},
		{name: "question mark", pattern: "?.txt", path: "a.txt", want: true},
		{name: "question mark too long", pattern: "?.txt", path: "ab.txt", want: false},
		{name: "char class", pattern: "[ab].txt", path: "b.txt", want: true},
		{name: "negated char class", pattern: "[!ab].txt", path: "c.txt", want: true},
		{name: "dir only matches dir", pattern: "build/", path: "build", isDir: true, want: true},
		{name: "dir only skips file", pattern: "build/", path: "build", want: false},
		{name: "dir only matches contents", pattern: "build/", path: "build/x/A.class", want: true},
		{name: "anchored root", pattern: "/target", path: "target", isDir: true, want: true},
		{name: "anchored not nested", pattern: "/target", path: "sub/target", isDir: true, want: false},
		{name: "inner slash anchors", pattern: "doc/api", path: "doc/api", want: true},
		{name: "inner slash not nested", pattern: "doc/api", path: "x/doc/api", want: false},
		{name: "double star prefix", pattern: "**/gen", path: "a/b/gen", isDir: true, want: true},
		{name: "double star suffix", pattern: "gen/**", path: "gen/a/b.java", want: true},
		{name: "double star middle", pattern: "a/**/z.txt", path: "a/b/c/z.txt", want: true},
		{name: "dots are literal", pattern: "a.b", path: "axb", want: false},
		{name: "escaped hash", pattern: `\#notes`, path: "#notes", want: true},
		{name: "comment ignored", pattern: "# nothing", path: "# nothing", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewGlobMatcher()
			m.AddPattern(tt.pattern)
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestGlobMatcher_NegationLastWins(t *testing.T) {
	m := NewGlobMatcher()
	m.AddPattern("*.log")
	m.AddPattern("!keep.log")

	assert.True(t, m.Match("debug.log", false))
	assert.False(t, m.Match("keep.log", false))
}

func TestGlobMatcher_Base(t *testing.T) {
	m := NewGlobMatcher()
	m.AddPatternWithBase("*.tmp", "sub")

	assert.True(t, m.Match("sub/a.tmp", false))
	assert.False(t, m.Match("other/a.tmp", false))
}

func TestGlobMatcher_AddFromFile(t *testing.T) {
	// Given: a gitignore file with comments and blank lines
	file := filepath.Join(t.TempDir(), ".gitignore")
	require.NoError(t, os.WriteFile(file, []byte("# generated\n\ntarget/\n*.bak\n"), 0o644))

	// When: loading it
	m := NewGlobMatcher()
	require.NoError(t, m.AddFromFile(file, ""))

	// Then: only real patterns count
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Match("target/classes/A.class", false))
	assert.True(t, m.Match("x.bak", false))

	assert.Error(t, m.AddFromFile(file+".missing", ""))
}

func TestGlobMatcher_ConcurrentUse(t *testing.T) {
	m := NewGlobMatcher()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.AddPattern("*.tmp")
		}()
		go func() {
			defer wg.Done()
			_ = m.Match("a.tmp", false)
		}()
	}
	wg.Wait()
	assert.True(t, m.Match("a.tmp", false))
}

func TestGlobs(t *testing.T) {
	p := Globs("**/test/**", "*.md")
	assert.True(t, p("src/test/java/A.java"))
	assert.True(t, p("README.md"))
	assert.False(t, p("src/main/java/A.java"))
}
