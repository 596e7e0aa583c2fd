// Package logging provides opt-in file-based logging with rotation for typemap.
// When the --debug flag is set, JSON logs are written to ~/.typemap/logs/
// alongside stderr output.
//
// Without --debug the CLI logs warnings to stderr only, and library callers
// that pass no logger get a discarding one.
package logging
