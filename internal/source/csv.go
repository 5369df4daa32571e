package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffBytes is how much of the file is inspected to pick a delimiter.
const sniffBytes = 4096

// CSVIterator streams rows from a delimited text export.
type CSVIterator struct {
	reader  *csv.Reader
	closer  io.Closer
	headers []string
	err     error
}

// NewCSVIterator reads the header row from r and returns an iterator over
// the remaining rows.
//
// The input is decoded with BOM detection: UTF-8 with or without a BOM and
// UTF-16 with a BOM are accepted, and invalid UTF-8 is replaced with U+FFFD.
// The delimiter (comma, semicolon, tab or pipe) is sniffed from the header line.
func NewCSVIterator(r io.Reader, closer io.Closer) (*CSVIterator, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReaderSize(decoded, sniffBytes)

	peek, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(peek)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	it := &CSVIterator{reader: cr, closer: closer}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse csv: %w", errEmptyFile)
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if !blankRecord(record) {
			it.headers = uniqueHeaders(record)
			return it, nil
		}
	}
}

var errEmptyFile = errors.New("empty file")

func (it *CSVIterator) Headers() []string { return it.headers }

func (it *CSVIterator) Next() (Row, bool) {
	for it.err == nil {
		record, err := it.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, false
		}
		if err != nil {
			it.err = fmt.Errorf("parse csv: %w", err)
			return nil, false
		}
		if row, ok := toRow(it.headers, record); ok {
			return row, true
		}
	}
	return nil, false
}

func (it *CSVIterator) Err() error { return it.err }

func (it *CSVIterator) Close() error {
	if it.closer == nil {
		return nil
	}
	return it.closer.Close()
}

// sniffDelimiter picks the candidate that appears most often on the first
// non-blank line.
func sniffDelimiter(peek []byte) rune {
	var line []byte
	for _, l := range bytes.Split(peek, []byte("\n")) {
		if len(bytes.TrimSpace(l)) > 0 {
			line = l
			break
		}
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
