package views

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"orderintake/internal"
	"orderintake/internal/suppliers"
)

const today = "20260831"

func dated(product, date string) internal.OrderRecord {
	return internal.OrderRecord{Product: product, Quantity: 1, Unit: "個", RequestedDate: date}
}

func TestBuildPickingListFilter(t *testing.T) {
	records := []internal.OrderRecord{
		dated("キャベツ", today),
		dated("タマネギ", "20260901"),
		dated("ニンジン", "unknown"),
		dated("ダイコン", today),
	}
	rows := BuildPickingList(records, today)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Product != "キャベツ" || rows[1].Product != "ダイコン" {
		t.Fatalf("row order must be preserved: %+v", rows)
	}
}

func TestBuildBacklogBoundary(t *testing.T) {
	records := []internal.OrderRecord{
		dated("今日の分", today),       // exactly today: excluded
		dated("明日の分", "20260901"), // after today: included
		dated("昨日の分", "20260830"),
		dated("未定の分", "未定"),
		dated("日付なし", ""),
	}

	rows := BuildBacklog(records, today, false)
	if len(rows) != 1 || rows[0].Product != "明日の分" {
		t.Fatalf("backlog = %+v, want only the future-dated row", rows)
	}

	withUndated := BuildBacklog(records, today, true)
	if len(withUndated) != 3 {
		t.Fatalf("with undated included = %d rows, want 3", len(withUndated))
	}
}

func TestBuildPurchaseListJoin(t *testing.T) {
	idx := suppliers.NewIndex([]internal.SupplierTag{
		{Product: "キャベツ", Size: "L", Supplier: "青果商事", PostalCode: "100-0001", Address: "東京都千代田区1-1", TaxRate: 8},
		{Product: "キャベツ", Size: "", Supplier: "八百屋本舗"},
		{Product: "豚肉", Size: "", Supplier: "食肉センター"},
	})

	summary := []internal.OrderRecord{
		{Product: "キャベツ", Size: "L", Quantity: 5, Unit: "個"},
		{Product: "キャベツ", Size: "M", Quantity: 2, Unit: "個"}, // falls back to size-less tag
		{Product: "豚肉", Quantity: 1.5, Unit: "kg"},
		{Product: "未登録品", Quantity: 3, Unit: "個"},
	}

	pl := BuildPurchaseList(summary, idx)
	if len(pl.Rows) != 4 {
		t.Fatalf("every summary row must stay visible: %d", len(pl.Rows))
	}
	if len(pl.Unmatched) != 1 || pl.Unmatched[0].Product != "未登録品" {
		t.Fatalf("unmatched bucket = %+v", pl.Unmatched)
	}

	names := pl.Suppliers()
	if len(names) != 3 {
		t.Fatalf("suppliers = %v", names)
	}
	if got := pl.RowsFor("八百屋本舗"); len(got) != 1 || got[0].Size != "M" {
		t.Fatalf("fallback supplier rows = %+v", got)
	}
	for _, name := range names {
		if name == "" {
			t.Fatal("blank supplier group must never be emitted")
		}
	}
}

func TestRenderPurchaseDocumentTruncation(t *testing.T) {
	rows := make([]PurchaseRow, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, PurchaseRow{
			OrderRecord: internal.OrderRecord{Product: "キャベツ", Quantity: float64(i + 1), Unit: "個", RequestedDate: "20260901"},
			Supplier:    "青果商事", PostalCode: "100-0001", Address: "東京都千代田区1-1",
		})
	}

	blob, truncated, err := RenderPurchaseDocument("青果商事", rows, "2026/08/31", 20)
	if err != nil {
		t.Fatal(err)
	}
	if truncated != 5 {
		t.Fatalf("truncated = %d, want 5", truncated)
	}

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(docSheet, "B3"); got != "青果商事" {
		t.Fatalf("supplier cell = %q", got)
	}
	if got, _ := f.GetCellValue(docSheet, "E3"); got != "2026/08/31" {
		t.Fatalf("date cell = %q", got)
	}
	// Last kept item row, then nothing past the cap.
	lastCell, _ := excelize.CoordinatesToCellName(1, docItemStart+19)
	if got, _ := f.GetCellValue(docSheet, lastCell); got != "キャベツ" {
		t.Fatalf("row at cap = %q", got)
	}
	overflowCell, _ := excelize.CoordinatesToCellName(1, docItemStart+20)
	if got, _ := f.GetCellValue(docSheet, overflowCell); got != "" {
		t.Fatalf("overflow row must be empty, got %q", got)
	}
	dateCell, _ := excelize.CoordinatesToCellName(5, docItemStart)
	if got, _ := f.GetCellValue(docSheet, dateCell); got != "2026/09/01" {
		t.Fatalf("requested date must be formatted, got %q", got)
	}
}
