// Package filter provides string predicates used to select scan inputs and
// scan results.
//
// Builder reproduces an ordered include/exclude chain of regular
// expressions: the chain starts accepting when it is empty or begins with an
// exclusion, includes are only consulted while rejecting, excludes only
// while accepting, and evaluation stops at the first exclusion that rejects.
// Patterns must match the whole input.
//
//	f, err := filter.Parse("+com\\.acme\\..*, -com\\.acme\\.internal\\..*")
//	f.Test("com.acme.Service")          // true
//	f.Test("com.acme.internal.Secret")  // false
//
// GlobMatcher implements gitignore pattern syntax for path-style inputs:
//
//	m := filter.NewGlobMatcher()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//	m.AddFromFile("/src/.gitignore", "")
//	m.AddFromFile("/src/sub/.gitignore", "sub")
package filter
