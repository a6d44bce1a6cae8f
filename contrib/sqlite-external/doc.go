// Package sqliteexternal registers the CGO SQLite driver (mattn/go-sqlite3)
// for builds that want it.
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/punctfix
//
// Without the tag, core/sqlite uses the pure Go modernc.org/sqlite driver and
// this package compiles to nothing. The journal database is small, so the CGO
// driver mainly matters when punctfix is embedded in a program that already
// links it.
package sqliteexternal
