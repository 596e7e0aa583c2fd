package filter

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"
)

// GlobMatcher holds compiled gitignore-style patterns. It is safe for
// concurrent use.
type GlobMatcher struct {
	mu    sync.RWMutex
	globs []glob
}

type glob struct {
	re       *regexp.Regexp
	negated  bool   // leading !
	dirOnly  bool   // trailing /
	anchored bool   // leading / or an inner /
	base     string // directory the pattern file lives in, slash separated
}

// NewGlobMatcher creates an empty matcher.
func NewGlobMatcher() *GlobMatcher {
	return &GlobMatcher{}
}

// AddPattern adds a pattern that applies from the root.
func (m *GlobMatcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base.
func (m *GlobMatcher) AddPatternWithBase(pattern, base string) {
	// "\ " at the end keeps a trailing space.
	keepSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)

	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	g := glob{base: strings.Trim(base, "/")}

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		g.negated = true
		pattern = pattern[1:]
	}

	if keepSpace && strings.HasSuffix(pattern, `\`) {
		pattern = strings.TrimSuffix(pattern, `\`) + " "
	}

	if strings.HasSuffix(pattern, "/") {
		g.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		g.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	// "doc/frotz" means "/doc/frotz", not "**/doc/frotz".
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") && !strings.HasPrefix(pattern, "*") {
		g.anchored = true
	}

	g.re = regexp.MustCompile("^" + globToRegex(pattern) + "$")

	m.mu.Lock()
	m.globs = append(m.globs, g)
	m.mu.Unlock()
}

// AddFromFile reads patterns from a gitignore-format file.
func (m *GlobMatcher) AddFromFile(file, base string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.AddPatternWithBase(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read pattern file: %w", err)
	}
	return nil
}

// Len returns the number of patterns.
func (m *GlobMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.globs)
}

// Match reports whether the slash-separated path is matched. The last
// matching pattern wins, so a later negation un-matches.
func (m *GlobMatcher) Match(p string, isDir bool) bool {
	p = strings.ReplaceAll(p, `\`, "/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := false
	for _, g := range m.globs {
		if g.match(p, isDir) {
			matched = !g.negated
		}
	}
	return matched
}

func (g glob) match(p string, isDir bool) bool {
	if g.base != "" {
		switch {
		case p == g.base:
			p = path.Base(p)
		case strings.HasPrefix(p, g.base+"/"):
			p = strings.TrimPrefix(p, g.base+"/")
		default:
			return false
		}
	}

	parts := strings.Split(p, "/")

	if g.anchored {
		if g.re.MatchString(p) {
			return !g.dirOnly || isDir
		}
		if g.dirOnly {
			// Files under a matched directory.
			for i := range parts[:len(parts)-1] {
				if g.re.MatchString(strings.Join(parts[:i+1], "/")) {
					return true
				}
			}
		}
		return false
	}

	if g.dirOnly {
		for i, part := range parts {
			if g.re.MatchString(part) {
				if i == len(parts)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	if g.re.MatchString(p) {
		return true
	}
	for _, part := range parts {
		if g.re.MatchString(part) {
			return true
		}
	}
	return false
}

// globToRegex converts a gitignore pattern into an unanchored regex body.
func globToRegex(pattern string) string {
	var sb strings.Builder

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					sb.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				if i == 0 || pattern[i-1] == '/' {
					sb.WriteString(".*")
					i += 2
					continue
				}
			}
			sb.WriteString("[^/]*")
			i++

		case '?':
			sb.WriteString("[^/]")
			i++

		case '[':
			j := strings.IndexByte(pattern[i+1:], ']')
			if j < 0 {
				sb.WriteString(`\[`)
				i++
				continue
			}
			class := pattern[i : i+j+2]
			if strings.HasPrefix(class, "[!") {
				class = "[^" + class[2:]
			}
			sb.WriteString(class)
			i += j + 2

		case '\\':
			if i+1 < len(pattern) {
				sb.WriteString(regexp.QuoteMeta(pattern[i+1 : i+2]))
				i += 2
				continue
			}
			sb.WriteString(`\\`)
			i++

		default:
			sb.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}

	return sb.String()
}

// Globs returns a predicate accepting paths matched by any of patterns.
func Globs(patterns ...string) Predicate {
	m := NewGlobMatcher()
	for _, p := range patterns {
		m.AddPattern(p)
	}
	return func(s string) bool {
		return m.Match(s, false)
	}
}
