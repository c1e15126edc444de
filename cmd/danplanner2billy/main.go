// Package main is the entry point for the danplanner2billy CLI.
package main

import (
	"os"

	"github.com/sman-dk/danplanner2billy/cmd/danplanner2billy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
