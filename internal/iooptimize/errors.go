package iooptimize

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/errcode"
)

// NotConnectedError is returned when optimization starts without a
// database connection.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Database not connected",
		Err:  fmt.Errorf("pool is nil"),
	}
}

// IndexError is returned when an index cannot be created.
func IndexError(table string, err error) error {
	msg := `Cannot create index on <em>%s</em>

<em>How to fix:</em>
  1. Make sure the table was created by 'sparkdl create' or
     loaded by 'sparkdl run --format postgres'
  2. Check that the database user has CREATE permission`
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.OptimizerIndexError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot index %s: %w",
			fn.Name(), table, err),
	}
}

// VacuumError is returned when VACUUM ANALYZE fails.
func VacuumError(table string, err error) error {
	msg := "Cannot run VACUUM ANALYZE on <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.OptimizerVacuumError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: vacuum analyze %s: %w",
			fn.Name(), table, err),
	}
}
