// Package main hosts the vdo CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full plan/apply workflow:
// previewing a reorganization, applying it behind a dataset lock with a
// verified backup, fingerprint scans for duplicate content, manifest
// consistency checks, run history, and configuration scaffolding. It
// centralizes configuration resolution, locking, and structured logging
// setup so subcommands stay thin.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
