package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// pandasIndexColumn is the unnamed index column pandas writes when exporting
// without index=False. It carries no data and is dropped on read.
const pandasIndexColumn = "Unnamed: 0"

// ReadCSV parses a CSV stream into a Table. The first record is the header.
// Rows with fewer fields than the header are padded with empty cells.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	t, err := New(name, header)
	if err != nil {
		return nil, err
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", name, t.NumRows()+2, err)
		}
		if len(record) > len(header) {
			record = record[:len(header)]
		}
		if err := t.AppendRow(record); err != nil {
			return nil, err
		}
	}

	t.DropColumn(pandasIndexColumn)
	return t, nil
}

// ReadCSVFile reads a CSV file into a Table named after its path base.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, baseName(path))
}

// ReadXLSXFile reads the first sheet of an xlsx workbook into a Table.
func ReadXLSXFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %s: %w", path, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %s is empty", path, sheets[0])
	}

	t, err := New(baseName(path), rows[0])
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		if len(row) > len(rows[0]) {
			row = row[:len(rows[0])]
		}
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}

	t.DropColumn(pandasIndexColumn)
	return t, nil
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		path = path[:i]
	}
	return path
}
