package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	mimeCSV  = "text/csv"
	mimeTSV  = "text/tab-separated-values"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileSource is a restartable source backed by a file on disk.
type FileSource struct {
	Path string
}

// MIMEType infers the MIME type from the file extension.
func (f FileSource) MIMEType() string {
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv", ".txt":
		return mimeCSV
	case ".tsv":
		return mimeTSV
	case ".xlsx", ".xlsm":
		return mimeXLSX
	default:
		return ""
	}
}

// Rows opens a fresh iterator over every data row. The caller must Close it.
func (f FileSource) Rows() (RowIterator, error) {
	mime := f.MIMEType()
	if mime == "" {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(f.Path))
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}

	if mime == mimeXLSX {
		it, err := NewXLSXIterator(fh)
		fh.Close() // excelize buffers the archive
		if err != nil {
			return nil, err
		}
		return it, nil
	}

	it, err := NewCSVIterator(fh, fh)
	if err != nil {
		fh.Close()
		return nil, err
	}
	return it, nil
}

// Sample reads the headers and at most maxRows data rows. A file with no
// header row yields an empty Sample carrying only the file metadata.
func (f FileSource) Sample(maxRows int) (*Sample, error) {
	if maxRows <= 0 {
		maxRows = DefaultSampleRows
	}

	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Path, err)
	}

	var s *Sample
	it, err := f.Rows()
	switch {
	case errors.Is(err, errEmptyFile):
		s = &Sample{}
	case err != nil:
		return nil, err
	default:
		defer it.Close()
		if s, err = Collect(it, maxRows); err != nil {
			return nil, err
		}
	}
	s.Filename = filepath.Base(f.Path)
	s.MIMEType = f.MIMEType()
	s.SizeBytes = info.Size()
	return s, nil
}

// Collect drains up to maxRows rows from it into a Sample without file metadata.
func Collect(it RowIterator, maxRows int) (*Sample, error) {
	s := &Sample{Headers: it.Headers()}
	for len(s.Rows) < maxRows {
		row, ok := it.Next()
		if !ok {
			break
		}
		s.Rows = append(s.Rows, row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
