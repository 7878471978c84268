package views

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"orderintake/internal"
)

const docSheet = "PurchaseOrder"

// First line-item row of the purchase document form.
const docItemStart = 8

// RenderPurchaseDocument lays one supplier's rows into the fixed purchase
// order form and returns the xlsx blob plus the number of rows dropped by the
// line-item cap.
func RenderPurchaseDocument(supplier string, rows []PurchaseRow, generated string, maxRows int) ([]byte, int, error) {
	if maxRows <= 0 {
		maxRows = 20
	}
	truncated := 0
	if len(rows) > maxRows {
		truncated = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), docSheet); err != nil {
		return nil, 0, err
	}

	set := func(cell, value string) {
		_ = f.SetCellStr(docSheet, cell, value)
	}

	set("A1", "Purchase Order")
	set("A3", "Supplier")
	set("B3", supplier)
	set("D3", "Date")
	set("E3", generated)
	if len(rows) > 0 {
		set("A4", "PostalCode")
		set("B4", rows[0].PostalCode)
		set("A5", "Address")
		set("B5", rows[0].Address)
	}

	header := []string{"Product", "Size", "Quantity", "Unit", "RequestedDate"}
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, docItemStart-1)
		set(cell, h)
	}
	for i, row := range rows {
		r := docItemStart + i
		values := []string{
			row.Product, row.Size, internal.FormatQuantity(row.Quantity), row.Unit,
			formatRequestedDate(row.RequestedDate),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			set(cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("render purchase document for %s: %w", supplier, err)
	}
	return buf.Bytes(), truncated, nil
}

func formatRequestedDate(date string) string {
	if len(date) != 8 {
		return date
	}
	return date[:4] + "/" + date[4:6] + "/" + date[6:]
}
