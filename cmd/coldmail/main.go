/*
Package main provides the CLI entry point for coldmail.
*/
package main

import (
	"os"

	"github.com/sensiq/coldmail/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
