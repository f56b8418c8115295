package main

import (
	"sys2/internal/kb/sqlitestore"
	"sys2/pkg/sys2"
)

// openSnapshotter opens the queryable sqlitestore backend at path (rather
// than the default in-memory BlobSnapshotter) so a CLI invocation's state
// survives across process runs, per SPEC_FULL.md §11.2.
func openSnapshotter(path string) (sys2.Snapshotter, error) {
	return sqlitestore.Open(path)
}
