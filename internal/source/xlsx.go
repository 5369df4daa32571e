package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXIterator streams rows from the first non-empty sheet of a workbook.
type XLSXIterator struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
	err     error
}

// NewXLSXIterator opens a workbook from r and positions the iterator after
// the header row of the first sheet that has one.
func NewXLSXIterator(r io.Reader) (*XLSXIterator, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			continue
		}

		for rows.Next() {
			record, err := rows.Columns()
			if err != nil {
				break
			}
			if !blankRecord(record) {
				return &XLSXIterator{file: f, rows: rows, headers: uniqueHeaders(record)}, nil
			}
		}
		rows.Close()
	}

	f.Close()
	return nil, fmt.Errorf("open workbook: %w", errEmptyFile)
}

func (it *XLSXIterator) Headers() []string { return it.headers }

func (it *XLSXIterator) Next() (Row, bool) {
	for it.err == nil && it.rows.Next() {
		record, err := it.rows.Columns()
		if err != nil {
			it.err = fmt.Errorf("read workbook row: %w", err)
			return nil, false
		}
		if row, ok := toRow(it.headers, record); ok {
			return row, true
		}
	}
	if it.err == nil {
		if err := it.rows.Error(); err != nil {
			it.err = fmt.Errorf("read workbook row: %w", err)
		}
	}
	return nil, false
}

func (it *XLSXIterator) Err() error { return it.err }

func (it *XLSXIterator) Close() error {
	if err := it.rows.Close(); err != nil {
		it.file.Close()
		return err
	}
	return it.file.Close()
}
