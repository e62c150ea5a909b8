package cli

import (
	"fmt"
	"io"
)

func PrintExtendedHelp(w io.Writer) {
	fmt.Fprintf(w, `medtrack %s - medication reminders and adherence ledger

Usage:
  medtrack [flags] <command> [args]

Commands:
  serve                                   Run the API and the reminder scheduler
  tick                                    Evaluate the current minute once
  doses <user> [date]                     Show a user's doses for a day
  mark <user> <id> <date> <time> <status> Record a dose as taken or missed
  summary <user> [start] [end]            Adherence over a date range
  ticks [n]                               Recently journaled ticks
  token <user>                            Issue an API bearer token
  config init|path|show                   Manage the config file
  channels                                Show notification transports
  doctor                                  Check the installation
  version                                 Print the version

Flags:
  -config string   Path to config file
  -data string     Path to data directory
`, Version)
}

func PrintConfigHelp(w io.Writer) {
	fmt.Fprintln(w, `Usage: medtrack config <command>

Commands:
  init [path]   Write a default config file
  path          Print the config file location
  show          Print the config file`)
}
