// Package main is the entry point for the gohoops application.
package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/gohoops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
