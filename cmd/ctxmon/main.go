package main

import (
	"fmt"
	"os"
)

const Version = "0.1.0"

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("ctxmon v%s\n", Version)
	case "help", "--help", "-h":
		printUsage()
	case "hook":
		os.Exit(runHook(args[1:]))
	case "notify":
		os.Exit(runNotify(args[1:]))
	case "feed":
		os.Exit(runFeed(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ctxmon - Claude Code context usage monitor

Usage:
  ctxmon hook                      Run one threshold check (hook payload on stdin)
  ctxmon notify <title> <message>  Send a desktop notification
  ctxmon feed [flags]              Stream live usage snapshots
  ctxmon version                   Show version
  ctxmon help                      Show this help

Feed flags:
  -config <path>    Config file override
  -interval <dur>   Poll interval (default 2s)
  -listen <addr>    Also serve snapshots on ws://<addr>/ws/feed

Hook setup: register "ctxmon hook" as a Claude Code Stop/PostToolUse hook.
The hook appends a handoff note to the configured output file and sends a
desktop notification once per session when context usage crosses the
threshold. Delete .claude/.context-threshold-hit to re-arm.`)
}
