// Package logging provides slog loggers with per-module levels.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"led": "debug"},
//	})
//	logger := logging.GetLogger("led")
//
// Records go to stdout when it is connected, to the systemd journal when
// journald is running (SYSLOG_IDENTIFIER=ledd, attributes as upper-case
// fields) and to an in-memory history served by the API:
//
//	journalctl -t ledd MODULE=pattern
//
// Module levels can be changed while running with SetModuleLevel. In the
// TOML config, keys of the [logging] table other than level and format are
// module levels:
//
//	[logging]
//	level = "info"
//	led = "debug"
package logging
