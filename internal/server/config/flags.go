package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/possync/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-o", "-b", "-g", "-e", "-u", "-p", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or "memory"
//	-o string   comma-separated CORS origins
//	-b string   S3 archive bucket (empty disables archiving)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-u string   S3 access key
//	-p string   S3 secret key
//	-l string   log level
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	origins := fs.String("o", strings.Join(cfg.CORSAllowOrigins, ","), "CORS allowed origins")
	fs.StringVar(&cfg.ArchiveBucket, "b", cfg.ArchiveBucket, "S3 archive bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.CORSAllowOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
