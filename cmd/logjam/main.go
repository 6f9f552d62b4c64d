// Package main provides the entry point for the logjam CLI.
package main

import (
	"os"

	"github.com/weswalla/logjam/cmd/logjam/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
