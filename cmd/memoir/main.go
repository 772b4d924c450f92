// Package main provides the entry point for the memoir CLI.
package main

import (
	"os"

	"github.com/kestrelmd/memoir/cmd/memoir/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
