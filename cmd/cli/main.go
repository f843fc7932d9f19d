// Package main is the entry point for the covid-report CLI.
package main

import (
	"os"

	"covid-report/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
