package vfs

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// NormalizeLocator strips the file: and jar: schemes, percent-decodes the
// path and drops a trailing nested separator with nothing after it.
func NormalizeLocator(locator string) string {
	l := strings.TrimSpace(locator)

	l = strings.TrimPrefix(l, "jar:")
	if strings.HasPrefix(l, "file://") {
		l = strings.TrimPrefix(l, "file://")
	} else {
		l = strings.TrimPrefix(l, "file:")
	}

	if strings.Contains(l, "%") {
		if decoded, err := url.PathUnescape(l); err == nil {
			l = decoded
		}
	}

	if strings.HasSuffix(l, NestedSeparator) {
		l = strings.TrimSuffix(l, NestedSeparator)
	}
	return l
}

// ForPaths expands glob patterns into locators. Patterns without glob
// metacharacters are returned as-is when they exist. Results are sorted and
// duplicate-free.
func ForPaths(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, p := range patterns {
		p = NormalizeLocator(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, NestedSeparator) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			continue
		}

		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidLocator, "invalid locator pattern "+p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// ForPackage returns, for each source root, the directory holding the
// package pkg (com.acme.api -> root/com/acme/api) when it exists. Archive
// roots are returned with a nested prefix (lib.jar!/com/acme/api).
func ForPackage(pkg string, roots ...string) []string {
	rel := strings.ReplaceAll(strings.Trim(pkg, "."), ".", "/")
	var out []string

	for _, root := range roots {
		root = NormalizeLocator(root)
		if isArchiveName(root) || strings.Contains(root, NestedSeparator) {
			if rel == "" {
				out = append(out, root)
			} else {
				out = append(out, root+NestedSeparator+rel)
			}
			continue
		}

		dir := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}
