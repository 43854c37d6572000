package ioetl

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/errcode"
	"github.com/sparkify/sparkdl/pkg/songplays"
)

// MalformedRecordsError is returned under the 'fail' policy when input
// has records that would be dropped. Nothing is written in this case.
func MalformedRecordsError(dropped int, reasons map[string]int) error {
	var details []string
	for _, k := range slices.Sorted(maps.Keys(reasons)) {
		details = append(details, fmt.Sprintf("%s: %d", k, reasons[k]))
	}
	msg := `Found <em>%d</em> malformed records (%s), no tables were written

<em>How to fix:</em>
  Use --malformed drop to skip such records`
	return &gn.Error{
		Code: errcode.MalformedRecordsError,
		Msg:  msg,
		Vars: []any{dropped, strings.Join(details, ", ")},
		Err:  fmt.Errorf("%d malformed records", dropped),
	}
}

// InvariantError is returned when songplays cannot be reconciled with
// the time dimension.
func InvariantError(err *songplays.InvariantError) error {
	return &gn.Error{
		Code: errcode.ReconcileInvariantError,
		Msg:  "Internal error, songplays do not match time table: %s",
		Vars: []any{err.Issue},
		Err:  fmt.Errorf("reconcile songplays: %w", err),
	}
}

// UnknownFormatError is returned for an output format without a sink.
func UnknownFormatError(format string) error {
	return &gn.Error{
		Code: errcode.SinkUnknownFormatError,
		Msg:  "Unknown output format <em>%s</em>, use files, sqlite or postgres",
		Vars: []any{format},
		Err:  fmt.Errorf("unknown output format %q", format),
	}
}

// CloseError is returned when a sink fails to flush and release its
// resources after all tables were written.
func CloseError(format string, err error) error {
	return &gn.Error{
		Code: errcode.SinkCloseError,
		Msg:  "Cannot close <em>%s</em> output, tables might be incomplete",
		Vars: []any{format},
		Err:  fmt.Errorf("close %s sink: %w", format, err),
	}
}

// CancelledError is returned when the run is interrupted.
func CancelledError(err error) error {
	return &gn.Error{
		Code: errcode.PipelineCancelledError,
		Msg:  "Run was cancelled, tables written so far are complete",
		Err:  fmt.Errorf("pipeline cancelled: %w", err),
	}
}
