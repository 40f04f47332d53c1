// mapgrab - terminal client for a Google Maps scraping server.
package main

import (
	"os"

	"github.com/mapgrab/mapgrab/internal/cli"
	"github.com/mapgrab/mapgrab/internal/version"
)

// Version information, normally injected at build time via LDFLAGS.
var (
	Version   = "v1.2.0"
	BuildTime = "2026-08-29"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
