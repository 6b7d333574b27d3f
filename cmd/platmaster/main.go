// Command platmaster extracts directional survey records from scanned well
// plat PDFs and delivers them as CSV or JSON.
package main

import (
	"os"

	"github.com/plat-tools/platmaster/cmd/platmaster/cmd"
	"github.com/plat-tools/platmaster/internal/version"
)

// Set via ldflags at build time.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.GitCommit = buildCommit
	version.BuildDate = buildDate

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
