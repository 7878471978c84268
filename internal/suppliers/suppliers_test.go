package suppliers

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"orderintake/internal"
)

func tagFixture() []internal.SupplierTag {
	return []internal.SupplierTag{
		{Product: "キャベツ", Size: "L", Supplier: "青果商事", PostalCode: "100-0001", Address: "東京都千代田区1-1", TaxRate: 8},
		{Product: "キャベツ", Size: "", Supplier: "八百屋本舗", PostalCode: "100-0002", Address: "東京都千代田区2-2", TaxRate: 8},
		{Product: "豚肉", Size: "", Supplier: "食肉センター", PostalCode: "200-0001", Address: "神奈川県横浜市3-3", TaxRate: 8},
	}
}

func TestLookupExactAndFallback(t *testing.T) {
	idx := NewIndex(tagFixture())

	if tag, ok := idx.Lookup("キャベツ", "L"); !ok || tag.Supplier != "青果商事" {
		t.Fatalf("exact match failed: %+v %v", tag, ok)
	}
	// No size-specific entry: fall back to the size-less mapping.
	if tag, ok := idx.Lookup("キャベツ", "M"); !ok || tag.Supplier != "八百屋本舗" {
		t.Fatalf("size fallback failed: %+v %v", tag, ok)
	}
	if _, ok := idx.Lookup("未登録品", "L"); ok {
		t.Fatal("unknown product must not resolve")
	}
}

func TestLookupCanonicalizesKey(t *testing.T) {
	idx := NewIndex(tagFixture())
	if tag, ok := idx.Lookup("きゃべつ", "ｌ"); !ok || tag.Supplier != "青果商事" {
		t.Fatalf("script variants must resolve identically: %+v %v", tag, ok)
	}
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]string{
		{"Product", "Size", "Supplier", "PostalCode", "Address", "TaxRate"},
		{"キャベツ", "L", "青果商事", "100-0001", "東京都千代田区1-1", "8"},
		{"", "", "空行はスキップ", "", "", ""},
		{"豚肉", "", "食肉センター", "200-0001", "神奈川県横浜市3-3", "8"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellStr(sheet, cell, v)
		}
	}
	blob, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	tags, err := ParseWorkbook(blob.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2 (blank product skipped)", len(tags))
	}
	if tags[0].Supplier != "青果商事" || tags[0].TaxRate != 8 {
		t.Fatalf("unexpected first tag: %+v", tags[0])
	}
}
