// Package workbook encodes and decodes day datasets as multi-sheet xlsx
// files. Every cell is written and read back as a string, so a decode of an
// encode reproduces the tables exactly.
package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"orderintake/internal"
)

// Encode writes the sheets in the given order into one xlsx blob.
func Encode(sheets map[string]internal.Table, order []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for _, name := range order {
		table, ok := sheets[name]
		if !ok {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		for r, row := range table {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellStr(name, cell, value); err != nil {
					return nil, fmt.Errorf("write %s!%s: %w", name, cell, err)
				}
			}
		}
	}
	if len(order) > 0 {
		if _, ok := sheets[defaultSheet]; !ok {
			_ = f.DeleteSheet(defaultSheet)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads every sheet of an xlsx blob. Rows are padded to the header
// width; sheet order is preserved.
func Decode(blob []byte) (map[string]internal.Table, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, nil, fmt.Errorf("decode workbook: %w", err)
	}
	defer f.Close()

	sheets := map[string]internal.Table{}
	order := f.GetSheetList()
	for _, name := range order {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		table := make(internal.Table, 0, len(rows))
		widest := 0
		for _, row := range rows {
			if len(row) > widest {
				widest = len(row)
			}
		}
		for _, row := range rows {
			padded := make([]string, widest)
			copy(padded, row)
			table = append(table, padded)
		}
		sheets[name] = table
	}
	return sheets, order, nil
}
