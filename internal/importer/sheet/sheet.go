// Package sheet reads and writes the tabular files used by bulk import and
// export: CSV and XLSX.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("sheet: unsupported format")

// Row is one data line keyed by normalized header. Line is the 1-based line
// number in the source file, header included.
type Row struct {
	Line   int
	Values map[string]string
}

func (r Row) Get(col string) string {
	return strings.TrimSpace(r.Values[col])
}

// Table is a parsed file: its normalized headers in source order and the
// non-blank data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

func (t *Table) Has(col string) bool {
	for _, h := range t.Headers {
		if h == col {
			return true
		}
	}
	return false
}

// Missing returns the required columns absent from the header row, in the
// order they were asked for.
func (t *Table) Missing(required []string) []string {
	var out []string
	for _, col := range required {
		if !t.Has(col) {
			out = append(out, col)
		}
	}
	return out
}

// FormatOf picks the reader from the file extension. Legacy .xls is not
// supported.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// NormalizeHeader trims, lower-cases and replaces inner spaces with '_', so
// "Customer Name" and "customer_name" match.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

func Read(filename string, r io.Reader) (*Table, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		records, err = cr.ReadAll()
	case FormatXLSX:
		records, err = readXLSX(r)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return toTable(records), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func toTable(records [][]string) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}

	for _, h := range records[0] {
		t.Headers = append(t.Headers, NormalizeHeader(h))
	}

	for i, rec := range records[1:] {
		values := make(map[string]string, len(t.Headers))
		blank := true
		for j, h := range t.Headers {
			if j >= len(rec) || h == "" {
				continue
			}
			values[h] = rec[j]
			if strings.TrimSpace(rec[j]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: i + 2, Values: values})
	}
	return t
}

// Write renders headers and records in the given format.
func Write(w io.Writer, format Format, headers []string, records [][]string) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(headers); err != nil {
			return err
		}
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		return cw.Error()
	case FormatXLSX:
		return writeXLSX(w, headers, records)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func writeXLSX(w io.Writer, headers []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, rec := range append([][]string{headers}, records...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
