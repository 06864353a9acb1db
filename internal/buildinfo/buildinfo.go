// Package buildinfo reports the version stamped into the binary at link
// time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/cryptify/internal/buildinfo.buildVersion=v1.0.0 \
//	  -X github.com/dmitrijs2005/cryptify/internal/buildinfo.buildDate=2025-01-01 \
//	  -X github.com/dmitrijs2005/cryptify/internal/buildinfo.buildCommit=abc123" ./cmd/cryptify
package buildinfo

import (
	"fmt"
	"io"
)

const notAvailable = "N/A"

var (
	buildVersion = notAvailable
	buildDate    = notAvailable
	buildCommit  = notAvailable
)

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// PrintBuildData writes the version, date and commit, one per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(buildCommit))
}
