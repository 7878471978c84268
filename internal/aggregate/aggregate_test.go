package aggregate

import (
	"context"
	"reflect"
	"testing"

	"orderintake/internal"
	"orderintake/internal/normalize"
)

func rec(product, size, unit, date string, qty float64) internal.OrderRecord {
	return internal.OrderRecord{
		Customer: "得意先A", Orderer: "山田", Product: product, Size: size,
		Quantity: qty, Unit: unit, RequestedDate: date,
		DeliveryLocation: "倉庫1", CapturedAt: "2026083114", Handler: "田中",
	}
}

func TestMergeAppends(t *testing.T) {
	existing := []internal.OrderRecord{rec("キャベツ", "L", "個", "20260831", 2)}
	incoming := []internal.OrderRecord{
		rec("キャベツ", "L", "個", "20260831", 2), // duplicate kept: audit log
		rec("タマネギ", "", "kg", "20260901", 1),
	}
	merged := Merge(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("merged = %d rows, want 3 (no dedup)", len(merged))
	}
}

func TestSummarizeSumsByKey(t *testing.T) {
	n := normalize.New(nil)
	records := []internal.OrderRecord{
		rec("キャベツ", "L", "個", "20260831", 2),
		rec("きゃべつ", "ｌ", "コ", "20260831", 3.5),
		rec("キャベツ", "L", "個", "20260831", 0),
		rec("キャベツ", "M", "個", "20260831", 1),
	}
	rows := Summarize(context.Background(), n, records)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Size != "L" || rows[0].Quantity != 5.5 {
		t.Fatalf("L group = %+v, want quantity 5.5", rows[0])
	}
	if rows[1].Size != "M" || rows[1].Quantity != 1 {
		t.Fatalf("M group = %+v", rows[1])
	}
}

func TestSummarizeBlanksLineFields(t *testing.T) {
	n := normalize.New(nil)
	rows := Summarize(context.Background(), n, []internal.OrderRecord{rec("キャベツ", "L", "個", "20260831", 2)})
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	r := rows[0]
	if r.Customer != "" || r.Orderer != "" || r.DeliveryLocation != "" || r.CapturedAt != "" || r.Handler != "" {
		t.Fatalf("per-line fields must be blank in summary: %+v", r)
	}
}

func TestSummarizeUnitConversionInGrouping(t *testing.T) {
	n := normalize.New(nil)
	records := []internal.OrderRecord{
		rec("豚肉", "", "g", "", 1500),
		rec("豚肉", "", "kg", "", 1),
	}
	rows := Summarize(context.Background(), n, records)
	if len(rows) != 1 {
		t.Fatalf("gram and kilogram lines must land in one group: %+v", rows)
	}
	if rows[0].Unit != "kg" || rows[0].Quantity != 2.5 {
		t.Fatalf("got %+v, want 2.5 kg", rows[0])
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	n := normalize.New(nil)
	records := []internal.OrderRecord{
		rec("タマネギ", "", "kg", "20260901", 1),
		rec("キャベツ", "L", "個", "20260831", 2),
		rec("玉葱", "", "キロ", "20260901", 2),
	}
	first := Summarize(context.Background(), n, records)
	second := Summarize(context.Background(), n, records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summarize must be deterministic:\n%+v\n%+v", first, second)
	}
	if first[0].Product != "キャベツ" || first[1].Product != "タマネギ" {
		t.Fatalf("rows must sort by canonical product name: %+v", first)
	}
	if first[1].Quantity != 3 {
		t.Fatalf("synonym rows must sum: %+v", first[1])
	}
}
