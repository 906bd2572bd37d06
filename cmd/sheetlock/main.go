// Package main provides the CLI entry point for sheetlock.
package main

import (
	"os"

	"github.com/javajack/sheetlock/cmd/sheetlock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
