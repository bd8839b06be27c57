//go:build !cgo_sqlite
// +build !cgo_sqlite

package cache

// Compiled by default: the pure Go SQLite implementation. No C compiler
// required, cross-compiles cleanly.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
