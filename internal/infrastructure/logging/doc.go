// Package logging provides structured logging using uber/zap.
//
// Logs always go to stderr by default; stdout carries the local copy of
// the relayed terminal output and must stay clean.
//
// Log Levels (command-line names):
//   - none: logging disabled (default)
//   - debug: process lifecycle, client joins, dropped input
//   - info: startup and shutdown
//   - warning: unexpected EOF, failed sends
//   - error: non-zero exits, spawn failures
//   - critical: only the most severe messages
//
// Development mode switches to the console encoder and colors levels
// when the output is a terminal.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug"})
//	if err != nil {
//		return err
//	}
//	logger.Info("Server starting", zap.Int("port", 8000))
package logging
