// Package cli implements the interactive terminal front end of
// BookmarkVault: a small REPL over the session, store, and bookmark
// service. It renders store snapshots and never mutates the bookmark list
// directly; every change goes through the service's entry points.
package cli
