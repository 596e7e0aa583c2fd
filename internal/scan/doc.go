// Package scan runs scanners over every entry of a set of roots.
//
// Each root is opened through a vfs.Registry, its entries are filtered on
// both the slash path and the dotted form, and every accepting scanner is
// called with the unit extracted by the scanners before it. A root that
// cannot be opened, an entry that cannot be read, and a scanner that
// fails or panics are all recorded in the Report and logged; none of them
// stops the scan.
//
// With Workers > 1 roots are scanned concurrently, one root per worker.
// The store is the only state shared between workers.
package scan
