package iofiles

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/errcode"
)

// OpenError is returned when the output directory cannot be prepared.
func OpenError(dir string, err error) error {
	msg := "Cannot prepare output directory <em>%s</em>"
	vars := []any{dir}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.SinkOpenError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot create %s: %w",
			fn.Name(), dir, err),
	}
}

// WriteError is returned when a table cannot be written. The previous
// version of the table stays in place.
func WriteError(table string, err error) error {
	msg := "Cannot write table <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.SinkWriteError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot write %s: %w",
			fn.Name(), table, err),
	}
}

// SwapError is returned when a new table directory cannot replace the
// old one.
func SwapError(table string, err error) error {
	msg := "Cannot replace table <em>%s</em> with its new version"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.SinkSwapError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot swap %s: %w",
			fn.Name(), table, err),
	}
}
