// Package config loads runtime configuration for the register client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-u string   backend base URL
//	-e string   edition id
//	-r int      register number
//	-f string   local database file
//	-i int      connectivity probe interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080/api",
//	  "edition_id": "spring-2026",
//	  "register_number": 2,
//	  "database_path": "register.db",
//	  "probe_interval": "10s",
//	  "sync_timeout": "1m",
//	  "retention_period": "72h"
//	}
package config
