// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides the routing decision ledger for assistroute.
//
// Every routed turn is appended to a local SQLite database so routing
// quality can be reviewed later: which stage classified the query, which
// decision rule fired, which model was chosen and how long it took.
//
// # Key Types
//
//   - Ledger: SQLite-backed store; implements router.Recorder
//   - Entry: One recorded decision
//   - Summary: Aggregated counts for a time window
//
// # Usage
//
//	ledger, err := telemetry.Open(cfg.Telemetry.DBPath)
//	if err != nil {
//	    return err
//	}
//	defer ledger.Close()
//	rec := telemetry.NewAsyncRecorder(ledger, cfg.Telemetry.QueueSize, logger)
//	defer rec.Close(ctx)
//	r := router.New(cfg.RouterSettings(), router.WithRecorder(rec))
//
// A Ledger can be passed to WithRecorder directly. The AsyncRecorder keeps
// SQLite writes off the routing path.
//
//	summary, _ := ledger.Summary(ctx, time.Now().Add(-24*time.Hour))
//
// # Privacy
//
// The ledger is local-only and does not transmit any data.
// Query content is never stored - only the decision metadata.
package telemetry
