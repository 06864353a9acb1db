// Package config loads runtime configuration for the cryptify CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-r string   database driver: sqlite or pgx
//	-d string   database DSN (SQLite file path or PostgreSQL URL)
//	-l string   log level: debug, info, warn, error
//	-f string   log format: text or json
//	-i int      idle timeout before automatic logout (minutes, 0 disables)
//
// # JSON schema
//
// The idle timeout uses timex.Duration, so it can be a string like "10m" or
// integer nanoseconds. Argon2id costs are only configurable here:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "data/cryptify.db",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "idle_timeout": "10m",
//	  "kdf_time": 3,
//	  "kdf_memory_kib": 65536,
//	  "kdf_threads": 4
//	}
//
// KDF settings apply to new registrations and password changes only; each
// user keeps the parameters their key was derived with.
package config
