// Package ioinput finds raw song and log files and decodes them into raw
// records. Files are read concurrently, but records are returned in the
// order of sorted file paths and positions inside files, so the result
// does not depend on the number of workers.
package ioinput

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/sparkify/sparkdl/pkg/raw"
	"golang.org/x/sync/errgroup"
)

// Discover returns sorted paths of *.json files under path. When path is
// a file, it is returned as is. Hidden directories are skipped.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NotFoundError(path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var res []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".json") {
			res = append(res, p)
		}
		return nil
	})
	if err != nil {
		return nil, ReadError(path, err)
	}

	if len(res) == 0 {
		return nil, NoFilesError(path)
	}
	slices.Sort(res)
	return res, nil
}

// ReadSongs reads song metadata records from all files under path.
// It also returns the number of files read.
func ReadSongs(
	ctx context.Context,
	path string,
	jobs int,
) ([]raw.Song, int, error) {
	return read(ctx, path, jobs, "Reading song files: ",
		func(f string, idx int) ([]raw.Song, error) {
			return readFile(f, idx, raw.DecodeSong)
		})
}

// ReadEvents reads activity log records from all files under path.
// Log files are JSON lines. A line that is not a JSON object becomes a
// corrupt event, so it can be dropped and counted later.
// It also returns the number of files read.
func ReadEvents(
	ctx context.Context,
	path string,
	jobs int,
) ([]raw.Event, int, error) {
	return read(ctx, path, jobs, "Reading log files: ", readLines)
}

// MaxLineSize is the longest log line that can be read.
const MaxLineSize = 64 * 1024 * 1024

type decodeFunc[T any] func(map[string]any, raw.Offset) T

type readFunc[T any] func(path string, fileIdx int) ([]T, error)

func read[T any](
	ctx context.Context,
	path string,
	jobs int,
	prefix string,
	readOne readFunc[T],
) ([]T, int, error) {
	files, err := Discover(path)
	if err != nil {
		return nil, 0, err
	}

	bar := pb.Full.Start(len(files))
	bar.Set("prefix", prefix)
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	results := make([][]T, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := readOne(f, i)
			if err != nil {
				return err
			}
			results[i] = recs
			bar.Increment()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, 0, err
	}

	var total int
	for _, v := range results {
		total += len(v)
	}
	res := make([]T, 0, total)
	for _, v := range results {
		res = append(res, v...)
	}

	slog.Info("Input is read",
		"path", path,
		"files", len(files),
		"records", humanize.Comma(int64(total)),
	)
	return res, len(files), nil
}

// readFile decodes a stream of JSON values. A file may hold a single
// object or one object per line. Values that are not objects are
// skipped, but still take a record position.
func readFile[T any](
	path string,
	fileIdx int,
	decode decodeFunc[T],
) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadError(path, err)
	}
	defer f.Close()

	var res []T
	dec := json.NewDecoder(f)
	for rec := 0; ; rec++ {
		var msg json.RawMessage
		err = dec.Decode(&msg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, DecodeError(path, rec, err)
		}

		obj, err := object(msg)
		if err != nil {
			slog.Warn("Skipping non-object JSON value",
				"file", path, "record", rec)
			continue
		}
		res = append(res, decode(obj, raw.Offset{File: fileIdx, Record: rec}))
	}
	return res, nil
}

// readLines decodes a JSON-lines log file one line at a time. Blank lines
// are skipped but keep their position.
func readLines(path string, fileIdx int) ([]raw.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadError(path, err)
	}
	defer f.Close()

	var res []raw.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for rec := 0; sc.Scan(); rec++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		off := raw.Offset{File: fileIdx, Record: rec}
		obj, err := object(line)
		if err != nil {
			slog.Warn("Cannot parse log line",
				"file", path, "record", rec, "error", err)
			res = append(res, raw.Event{Offset: off, Corrupt: true})
			continue
		}
		res = append(res, raw.DecodeEvent(obj, off))
	}
	if err = sc.Err(); err != nil {
		return nil, ReadError(path, err)
	}
	return res, nil
}

// object decodes a JSON object keeping numbers as json.Number.
func object(msg json.RawMessage) (map[string]any, error) {
	var res map[string]any
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}
	if res == nil {
		return nil, errors.New("null value")
	}
	return res, nil
}
