package ioinput

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/errcode"
)

// NotFoundError is returned when an input location does not exist.
func NotFoundError(path string, err error) error {
	msg := `Cannot find input <em>%s</em>

<em>How to fix:</em>
  Set input.song_data and input.log_data in the config file,
  use SPARKDL_INPUT_* environment variables or
  --song-data and --log-data flags`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputNotFoundError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot stat %s: %w",
			fn.Name(), path, err),
	}
}

// NoFilesError is returned when an input directory has no JSON files.
func NoFilesError(path string) error {
	msg := "No <em>*.json</em> files found in <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.InputNoFilesError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no json files in %s", path),
	}
}

// ReadError is returned when an input file cannot be read.
func ReadError(path string, err error) error {
	msg := "Cannot read <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputReadError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot read %s: %w",
			fn.Name(), path, err),
	}
}

// DecodeError is returned when a file is not valid JSON. Records that
// are valid JSON but miss fields are handled by transformers, not here.
func DecodeError(path string, record int, err error) error {
	msg := "Invalid JSON in <em>%s</em> after record %d"
	vars := []any{path, record}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputDecodeError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot decode %s record %d: %w",
			fn.Name(), path, record, err),
	}
}
