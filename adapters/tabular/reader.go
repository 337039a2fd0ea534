// Package tabular moves frames in and out of CSV and Excel files.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/errors"
)

// Read parses an uploaded file into a frame, dispatching on the filename
// extension. Cells are coerced the standard way: empty to null, numeric
// text to numbers, true/false to booleans, everything else stays a string.
func Read(filename string, data []byte) (*table.Frame, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(data)
	case ".xlsx", ".xls":
		return ReadXLSX(data)
	default:
		return nil, errors.UnsupportedFormat(filepath.Ext(filename))
	}
}

// ReadCSV parses CSV bytes into a frame. The first row is the header.
func ReadCSV(data []byte) (*table.Frame, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.FileProcessing("csv", err)
	}
	return fromRows(rows)
}

// ReadXLSX parses workbook bytes into a frame, reading the first sheet.
func ReadXLSX(data []byte) (*table.Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.FileProcessing("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptyDataset
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.FileProcessing("xlsx", err)
	}
	return fromRows(rows)
}

// fromRows builds the frame from raw string rows, header first. Short rows
// are padded with nulls so every column keeps the same length.
func fromRows(rows [][]string) (*table.Frame, error) {
	if len(rows) < 2 {
		return nil, core.ErrEmptyDataset
	}
	headers := make([]string, len(rows[0]))
	seen := map[string]int{}
	for i, h := range rows[0] {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		// duplicated headers get a numeric suffix
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		headers[i] = name
	}

	columns := make([][]table.Value, len(headers))
	for i := range columns {
		columns[i] = make([]table.Value, 0, len(rows)-1)
	}
	for _, row := range rows[1:] {
		for j := range headers {
			if j < len(row) {
				columns[j] = append(columns[j], table.ParseCell(row[j]))
			} else {
				columns[j] = append(columns[j], table.Null())
			}
		}
	}

	frame := table.NewFrame()
	for i, name := range headers {
		if err := frame.AddColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	if frame.RowCount() == 0 {
		return nil, core.ErrEmptyDataset
	}
	return frame, nil
}
