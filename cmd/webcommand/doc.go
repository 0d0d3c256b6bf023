// Command web-command runs a command on a pseudo-terminal and streams its
// output to web browsers.
//
// Usage:
//
//	web-command [flags] [--] [COMMAND [ARGS...]]
//
// Without a command, standard input is relayed to viewers instead.
// Open http://localhost:8000/ to watch.
package main
