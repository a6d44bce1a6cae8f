//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

var dsnOptions = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=foreign_keys(1)",
}
