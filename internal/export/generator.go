package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
)

// Package export contains the chunk sources that back export downloads.
// A Source is the streaming counterpart of a fully materialized body: the
// consumer pulls one chunk at a time, and nothing past the current chunk
// exists in memory.

// Source produces successive chunks of a response body.
// Next returns the next chunk, or io.EOF once the source is exhausted.
// A chunk is never retained by the source after the following Next call.
type Source interface {
	Next() ([]byte, error)
}

// Demo dataset columns. Every generated export carries the same shape: a
// header row followed by RowCount data rows.
var (
	headerRecord = []string{"One", "Two", "Three"}
)

// CSVGenerator is a Source that emits a CSV document one encoded row per
// chunk. Rows are encoded lazily: row n is not built until the consumer asks
// for it, so time-to-first-byte is independent of the total row count.
type CSVGenerator struct {
	rows int64
	next int64 // 0 = header pending; n >= 1 = data row n pending
	buf  bytes.Buffer
	w    *csv.Writer
}

// NewCSVGenerator returns a generator for a CSV document of rows data rows
// (plus the header row). A non-positive rows yields just the header.
func NewCSVGenerator(rows int64) *CSVGenerator {
	g := &CSVGenerator{rows: rows}
	g.w = csv.NewWriter(&g.buf)
	return g
}

// Next encodes and returns the next CSV row. It returns io.EOF after the
// final data row has been emitted.
func (g *CSVGenerator) Next() ([]byte, error) {
	if g.next > g.rows {
		return nil, io.EOF
	}

	record := headerRecord
	if g.next > 0 {
		record = []string{"Hello", "world", strconv.FormatInt(g.next, 10)}
	}

	g.buf.Reset()
	if err := g.w.Write(record); err != nil {
		return nil, err
	}
	g.w.Flush()
	if err := g.w.Error(); err != nil {
		return nil, err
	}

	g.next++
	return bytes.Clone(g.buf.Bytes()), nil
}

// WriteTo drains the remaining chunks into w and returns the number of bytes
// written. It materializes nothing beyond one row at a time, so it serves
// both the buffered path (w is an in-memory buffer) and artifact archiving
// (w is an object storage pipe).
func (g *CSVGenerator) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := g.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}
