// Package source turns export files into the in-memory shapes the import
// core consumes: a bounded [Sample] for detection and mapping, and a lazy
// [RowIterator] over the full dataset.
//
// The core never opens files itself. Restarting an iteration means asking
// the [FileSource] for a fresh iterator.
package source

import (
	"strconv"
	"strings"
)

// DefaultSampleRows bounds the rows kept in a Sample.
const DefaultSampleRows = 50

// Row maps a source header to its raw cell value.
type Row map[string]string

// Sample is the bounded view of one file used by detection and mapping.
type Sample struct {
	Filename  string   `json:"filename"`
	MIMEType  string   `json:"mime_type"`
	SizeBytes int64    `json:"size_bytes"`
	Headers   []string `json:"headers"` // Column order
	Rows      []Row    `json:"sample_rows"`
}

// Empty reports whether the sample carries nothing to analyze.
func (s *Sample) Empty() bool {
	return s == nil || len(s.Headers) == 0
}

// Column returns the sample values of one header, in row order.
func (s *Sample) Column(header string) []string {
	if s == nil {
		return nil
	}
	values := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		values = append(values, r[header])
	}
	return values
}

// RowIterator walks the rows of a file once.
type RowIterator interface {
	Headers() []string
	// Next returns the next row, or false when the rows are exhausted or
	// reading failed; check Err afterwards.
	Next() (Row, bool)
	Err() error
	Close() error
}

// SliceIterator iterates over rows already in memory.
type SliceIterator struct {
	headers []string
	rows    []Row
	pos     int
}

// NewSliceIterator returns an iterator over rows.
func NewSliceIterator(headers []string, rows []Row) *SliceIterator {
	return &SliceIterator{headers: headers, rows: rows}
}

func (it *SliceIterator) Headers() []string { return it.headers }

func (it *SliceIterator) Next() (Row, bool) {
	if it.pos >= len(it.rows) {
		return nil, false
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true
}

func (it *SliceIterator) Err() error   { return nil }
func (it *SliceIterator) Close() error { return nil }

// uniqueHeaders cleans header cells and disambiguates exact repeats with a
// " (n)" suffix so that a Row never loses a column.
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.TrimSpace(h) == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = h + " (" + strconv.Itoa(n) + ")"
		}
		out[i] = h
	}
	return out
}

// toRow zips headers with a record. Short records pad with "".
func toRow(headers, record []string) (Row, bool) {
	row := make(Row, len(headers))
	blank := true
	for i, h := range headers {
		v := ""
		if i < len(record) {
			v = record[i]
		}
		if strings.TrimSpace(v) != "" {
			blank = false
		}
		row[h] = v
	}
	return row, !blank
}
