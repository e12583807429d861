// Package main is the entry point for the fetchplan CLI tool.
package main

import (
	"os"

	"github.com/roach88/fetchplan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
