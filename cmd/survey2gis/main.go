// Command survey2gis is a thin CLI wiring the schema-load, read/validate,
// multiplex, select, and reproject stages end to end — a demonstration
// harness over the internal packages, not a full rewrite of a desktop
// GUI application's flag surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
