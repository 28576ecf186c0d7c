// Package file provides the TOML-backed driven.ConfigStore.
//
// Keys are exposed flattened ("sync.interval_ms") and written back as
// nested tables, so a hand-edited file like
//
//	[sync]
//	scope = "ws-1"
//	interval_ms = 5000
//
// reads the same as one produced by Set.
package file
