// Package main provides the entry point for the vecfusectl CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/vecfuse/cmd/vecfusectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
