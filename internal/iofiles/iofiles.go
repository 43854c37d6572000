// Package iofiles writes star schema tables as Hive-style partitioned
// JSON-lines files:
//
//	<dir>/<table>/<key>=<value>/.../part-00000.jsonl
//
// Partition columns are encoded in directory names only. A table is
// written into a hidden sibling directory first and then renamed into
// place, so readers never see a partially written table.
package iofiles

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sparkify/sparkdl/pkg/sink"
)

const (
	// PartFile is the name of a data file inside a partition.
	PartFile = "part-00000.jsonl"

	// SuccessFile marks a completely written table.
	SuccessFile = "_SUCCESS"

	// DefaultPartition replaces NULL partition values.
	DefaultPartition = "__HIVE_DEFAULT_PARTITION__"

	// TimeLayout formats timestamps in partition names.
	TimeLayout = "2006-01-02 15:04:05"
)

type fileSink struct {
	dir string
}

// NewSink creates a files sink that writes tables under dir.
func NewSink(dir string) (sink.Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, OpenError(dir, err)
	}
	return &fileSink{dir: dir}, nil
}

// Write replaces <dir>/<table> with the content of t.
func (s *fileSink) Write(ctx context.Context, t sink.Table) error {
	if err := t.Validate(); err != nil {
		return WriteError(t.Name, err)
	}

	tmp := filepath.Join(s.dir, "."+t.Name+"-"+uuid.NewString())
	defer os.RemoveAll(tmp)

	parts, err := writePartitions(ctx, tmp, t)
	if err != nil {
		return WriteError(t.Name, err)
	}

	if err = swap(tmp, filepath.Join(s.dir, t.Name)); err != nil {
		return SwapError(t.Name, err)
	}

	slog.Info("Table written",
		"table", t.Name,
		"rows", humanize.Comma(int64(len(t.Rows))),
		"partitions", parts,
	)
	return nil
}

// Close does nothing, every Write is complete on return.
func (s *fileSink) Close() error {
	return nil
}

// writePartitions writes all rows of t under root and returns the number
// of partitions.
func writePartitions(ctx context.Context, root string, t sink.Table) (int, error) {
	keyIdx := make([]int, len(t.PartitionKeys))
	for i, k := range t.PartitionKeys {
		keyIdx[i] = t.ColumnIndex(k)
	}
	var dataIdx []int
	for i := range t.Columns {
		if !slices.Contains(keyIdx, i) {
			dataIdx = append(dataIdx, i)
		}
	}

	groups := make(map[string][][]any)
	if len(keyIdx) == 0 {
		groups[""] = t.Rows
	} else {
		for _, row := range t.Rows {
			p := partitionPath(t, keyIdx, row)
			groups[p] = append(groups[p], row)
		}
	}

	paths := make([]string, 0, len(groups))
	for k := range groups {
		paths = append(paths, k)
	}
	slices.Sort(paths)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		dir := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
		err := writeRows(filepath.Join(dir, PartFile), t.Columns, dataIdx, groups[p])
		if err != nil {
			return 0, err
		}
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return 0, err
	}
	err := os.WriteFile(filepath.Join(root, SuccessFile), nil, 0644)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// partitionPath builds "k1=v1/k2=v2" for a row.
func partitionPath(t sink.Table, keyIdx []int, row []any) string {
	parts := make([]string, len(keyIdx))
	for i, idx := range keyIdx {
		parts[i] = escapePath(t.Columns[idx]) + "=" + partitionValue(row[idx])
	}
	return strings.Join(parts, "/")
}

func partitionValue(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return DefaultPartition
	case string:
		s = val
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	case time.Time:
		s = val.UTC().Format(TimeLayout)
	default:
		s = fmt.Sprint(val)
	}
	if s == "" {
		return DefaultPartition
	}
	return escapePath(s)
}

// escapePath percent-encodes characters that are unsafe in partition
// directory names, the same set Hive escapes.
func escapePath(s string) string {
	const special = "\"#%'*/:=?\\{[]^"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(special, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// writeRows writes one JSON object per row with keys in column order.
func writeRows(path string, cols []string, idx []int, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	var buf bytes.Buffer
	for _, row := range rows {
		buf.Reset()
		buf.WriteByte('{')
		for i, j := range idx {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err = encode(&buf, cols[j]); err != nil {
				f.Close()
				return err
			}
			buf.WriteByte(':')
			if err = encode(&buf, row[j]); err != nil {
				f.Close()
				return err
			}
		}
		buf.WriteString("}\n")
		if _, err = w.Write(buf.Bytes()); err != nil {
			f.Close()
			return err
		}
	}

	if err = w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(buf *bytes.Buffer, v any) error {
	if tm, ok := v.(time.Time); ok {
		v = tm.UTC().Format(TimeLayout)
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(bs)
	return nil
}

// swap moves src to dst. An existing dst is moved aside first and
// restored if the rename fails.
func swap(src, dst string) error {
	old := filepath.Join(filepath.Dir(dst),
		"."+filepath.Base(dst)+"-old-"+uuid.NewString())

	_, err := os.Stat(dst)
	hasOld := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if hasOld {
		if err = os.Rename(dst, old); err != nil {
			return err
		}
	}

	if err = os.Rename(src, dst); err != nil {
		if hasOld {
			_ = os.Rename(old, dst)
		}
		return err
	}

	if hasOld {
		return os.RemoveAll(old)
	}
	return nil
}
