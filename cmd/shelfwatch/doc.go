// Command shelfwatch is the CLI for a running shelfwatchd daemon. It logs
// in, inspects library issues, and manages curation state over the HTTP API.
package main
