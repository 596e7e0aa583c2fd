// Package main provides the entry point for the typemap CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/typemap/cmd/typemap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
