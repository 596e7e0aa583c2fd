// Package typemap builds and queries a map of JVM type metadata.
//
// A Map is produced by scanning roots (directories, jars, tar streams and
// archives nested in archives) with a set of scanners, optionally followed
// by a supertype expansion pass. After Scan returns the map is read-only
// and safe for concurrent queries.
//
// # Usage
//
//	cfg, _ := config.Load(".")
//	opts, _ := typemap.FromConfig(cfg, logger)
//	m, err := typemap.Scan(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	services, _ := m.SubTypesOf("com.acme.Service")
//
// # Values
//
// Types are fully qualified binary names (com.acme.Outer$Inner). Methods
// and constructors are "Type.name(p1, p2)" with constructors named
// <init>; use metadata.ParseMethodKey to split them. Fields are
// "Type.field".
package typemap
