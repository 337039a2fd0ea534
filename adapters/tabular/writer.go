package tabular

import (
	"bytes"
	"encoding/csv"

	"github.com/xuri/excelize/v2"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/errors"
)

// Export serializes a frame in the named format and returns the bytes plus
// the matching content type.
func Export(f *table.Frame, format string) ([]byte, string, error) {
	switch format {
	case "csv":
		data, err := WriteCSV(f)
		return data, "text/csv", err
	case "xlsx":
		data, err := WriteXLSX(f)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", errors.UnsupportedFormat(format)
	}
}

// WriteCSV serializes a frame as CSV, header row first. Null cells become
// empty fields.
func WriteCSV(f *table.Frame) ([]byte, error) {
	if f == nil || f.ColumnCount() == 0 {
		return nil, core.ErrEmptyDataset
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	headers := f.Columns()
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	record := make([]string, len(headers))
	for i := 0; i < f.RowCount(); i++ {
		row := f.Row(i)
		for j, name := range headers {
			record[j] = row[name].DisplayString()
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteXLSX serializes a frame as a single-sheet workbook.
func WriteXLSX(f *table.Frame) ([]byte, error) {
	if f == nil || f.ColumnCount() == 0 {
		return nil, core.ErrEmptyDataset
	}
	wb := excelize.NewFile()
	defer wb.Close()
	const sheet = "Sheet1"

	headers := f.Columns()
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := wb.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, err
	}
	for i := 0; i < f.RowCount(); i++ {
		row := f.Row(i)
		cells := make([]interface{}, len(headers))
		for j, name := range headers {
			cells[j] = row[name].Any()
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := wb.SetSheetRow(sheet, cellRef, &cells); err != nil {
			return nil, err
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
