// Command compliancectl checks marketing content against the compliance rule
// catalog from the command line.
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"
)

var (
	version = "1.0.0"
	appName = "compliancectl"

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorFaint  = color.New(color.Faint)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errNotCompliant) {
			colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
