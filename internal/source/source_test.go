package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVIterator_BOMAndDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain comma", "Item Name,Price\nCaesar Salad,$12.99\n"},
		{"utf8 bom", "\xEF\xBB\xBFItem Name,Price\nCaesar Salad,$12.99\n"},
		{"semicolon", "Item Name;Price\nCaesar Salad;$12.99\n"},
		{"tab", "Item Name\tPrice\nCaesar Salad\t$12.99\n"},
		{"leading blank lines", "\n,\nItem Name,Price\nCaesar Salad,$12.99\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NewCSVIterator(strings.NewReader(tt.input), nil)
			require.NoError(t, err)

			assert.Equal(t, []string{"Item Name", "Price"}, it.Headers())

			row, ok := it.Next()
			require.True(t, ok)
			assert.Equal(t, Row{"Item Name": "Caesar Salad", "Price": "$12.99"}, row)

			_, ok = it.Next()
			assert.False(t, ok)
			assert.NoError(t, it.Err())
		})
	}
}

func TestCSVIterator_UTF16(t *testing.T) {
	// "a,b\n1,2\n" in UTF-16LE with BOM
	input := []byte{0xFF, 0xFE}
	for _, c := range "a,b\n1,2\n" {
		input = append(input, byte(c), 0)
	}

	it, err := NewCSVIterator(strings.NewReader(string(input)), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, it.Headers())

	row, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "2", row["b"])
}

func TestCSVIterator_ShortRowsAndBlankRows(t *testing.T) {
	it, err := NewCSVIterator(strings.NewReader("a,b,c\n1,2\n,,\n4,5,6,7\n"), nil)
	require.NoError(t, err)

	s, err := Collect(it, 10)
	require.NoError(t, err)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, Row{"a": "1", "b": "2", "c": ""}, s.Rows[0])
	assert.Equal(t, Row{"a": "4", "b": "5", "c": "6"}, s.Rows[1])
}

func TestCSVIterator_Empty(t *testing.T) {
	_, err := NewCSVIterator(strings.NewReader(""), nil)
	assert.ErrorContains(t, err, "empty file")
}

func TestUniqueHeaders(t *testing.T) {
	got := uniqueHeaders([]string{"Name", "name ", "Name", "", "\ufeffPrice"})
	assert.Equal(t, []string{"Name", "name ", "Name (2)", "column_4", "Price"}, got)
}

func TestFileSource_SampleCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "square_export_2024.csv")

	var b strings.Builder
	b.WriteString("Transaction ID,Gross Sales\n")
	for i := 0; i < 120; i++ {
		b.WriteString("TX1,$1.00\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	s, err := FileSource{Path: path}.Sample(50)
	require.NoError(t, err)

	assert.Equal(t, "square_export_2024.csv", s.Filename)
	assert.Equal(t, "text/csv", s.MIMEType)
	assert.Equal(t, int64(b.Len()), s.SizeBytes)
	assert.Len(t, s.Rows, 50)
	assert.Equal(t, []string{"$1.00", "$1.00"}, s.Column("Gross Sales")[:2])
}

func TestFileSource_SampleEmptyFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"zero bytes", ""},
		{"blank lines only", "\n\n,,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "square_export.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := FileSource{Path: path}.Sample(50)
			require.NoError(t, err)
			require.NotNil(t, s)
			assert.Empty(t, s.Headers)
			assert.Empty(t, s.Rows)
			assert.Equal(t, "square_export.csv", s.Filename)
			assert.Equal(t, "text/csv", s.MIMEType)
			assert.Equal(t, int64(len(tt.content)), s.SizeBytes)
		})
	}
}

func TestFileSource_SampleMissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.Sample(50)
	assert.ErrorContains(t, err, "stat")
}

func TestFileSource_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Item Name", "Price", "Category"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Caesar Salad", "$12.99", "Appetizers"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Burger", "15", "Entrees"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src := FileSource{Path: path}
	assert.Equal(t, mimeXLSX, src.MIMEType())

	it, err := src.Rows()
	require.NoError(t, err)
	defer it.Close()

	assert.Equal(t, []string{"Item Name", "Price", "Category"}, it.Headers())
	s, err := Collect(it, 10)
	require.NoError(t, err)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "Caesar Salad", s.Rows[0]["Item Name"])
	assert.Equal(t, "Entrees", s.Rows[1]["Category"])
}

func TestFileSource_Unsupported(t *testing.T) {
	_, err := FileSource{Path: "export.pdf"}.Rows()
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]string{"a"}, []Row{{"a": "1"}, {"a": "2"}})
	s, err := Collect(it, 1)
	require.NoError(t, err)
	assert.Len(t, s.Rows, 1)

	row, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "2", row["a"])
}
