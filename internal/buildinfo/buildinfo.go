// Package buildinfo exposes values injected at link time, e.g.
//
//	go build -ldflags "-X github.com/dmitrijs2005/possync/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
