package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
)

var knownFlags = []string{"-u", "-e", "-r", "-f", "-i", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   backend base URL
//	-e string   edition (event) id
//	-r int      register number printed on sales
//	-f string   path of the local SQLite database
//	-i int      connectivity probe interval in seconds
//	-l string   log level (debug, info, warn, error)
//
// The function filters os.Args to only the flags above, using
// flagx.FilterArgs, so the -c/-config flag handled elsewhere does not fail
// parsing.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.EditionID, "e", cfg.EditionID, "edition id")
	fs.IntVar(&cfg.RegisterNumber, "r", cfg.RegisterNumber, "register number")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	probeInterval := fs.Int("i", int(cfg.ProbeInterval.Seconds()), "connectivity probe interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *probeInterval <= 0 {
		return fmt.Errorf("parse flags: probe interval must be positive, got %d", *probeInterval)
	}

	cfg.ProbeInterval = time.Duration(*probeInterval) * time.Second
	return nil
}
