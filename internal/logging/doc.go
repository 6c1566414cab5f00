// Package logging provides opt-in file-based logging with rotation for the
// archive pipeline. Setup writes JSON logs to a rotating file (by default
// under ~/.archive/logs/), optionally mirrored to stderr; DebugConfig
// selects the debug level.
//
// No command-line flag turns this on: cmd/archive only uses LevelFromString
// and logs to stderr.
package logging
