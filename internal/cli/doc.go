// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the assistroute command line.
//
// The command tree is built with cobra. Every command loads configuration
// in the root's PersistentPreRunE, so flags such as --config and
// --log-level apply everywhere.
//
// # Commands
//
//	route <query>      Run the cascade and print the routing decision
//	classify <query>   Classify only
//	tools              List the tool catalog and groups
//	stats              Summarize the telemetry ledger
//	serve              Serve the routing API over HTTP
//	config             Show, query or initialize configuration
//	version            Print version information
//
// # Output
//
// Styled text goes to terminals. When stdout is not a terminal, or --json
// is given, commands print a JSONResponse envelope instead. Logs always go
// to stderr.
//
// # Exit Codes
//
// Execute maps errors to exit codes with ExitCode: usage errors exit 2,
// configuration errors 3, unknown resources 7, everything else 1.
package cli
