package parser

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 31, 14, 5, 0, 0, time.UTC)

func line(cols ...string) string { return strings.Join(cols, ",") }

func orderLine(product, qty, date string) string {
	return line("得意先A", "山田", product, "L", qty, "個", date, "倉庫1", "", "", "備考")
}

func TestParseMalformedLineIsolation(t *testing.T) {
	raw := strings.Join([]string{
		orderLine("キャベツ", "2", "20260831"),
		"キャベツ,2個", // wrong field count
		orderLine("タマネギ", "3.5", "20260901"),
		"ただのメモ",
		orderLine("ニンジン", "0", ""),
	}, "\n")

	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 3 {
		t.Fatalf("valid records = %d, want 3", len(res.Records))
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("rejected lines = %d, want 2", len(res.Rejected))
	}
}

func TestParseStampsClockAndHandler(t *testing.T) {
	raw := line("得意先A", "山田", "キャベツ", "L", "2", "個", "20260831", "倉庫1", "9999999999", "AIの担当者", "")
	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 1 {
		t.Fatalf("records = %d", len(res.Records))
	}
	rec := res.Records[0]
	if rec.CapturedAt != "2026083114" {
		t.Fatalf("CapturedAt = %q, extraction output must be discarded", rec.CapturedAt)
	}
	if rec.Handler != "田中" {
		t.Fatalf("Handler = %q, extraction output must be discarded", rec.Handler)
	}
}

func TestParseRefusalOnly(t *testing.T) {
	raw := "I'm sorry, I cannot extract this"
	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(res.Records))
	}
	if len(res.Rejected) != 1 || res.Rejected[0] != raw {
		t.Fatalf("full raw text must be the single diagnostic entry, got %v", res.Rejected)
	}
}

func TestParseJapaneseRefusalAndFiller(t *testing.T) {
	raw := strings.Join([]string{
		"申し訳ありませんが、画像から直接抽出することはできません。",
		"…",
		"この情報をCSVにしました。",
	}, "\n")
	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(res.Records))
	}
	if len(res.Rejected) != 1 {
		t.Fatalf("rejected = %v, want single full-text entry", res.Rejected)
	}
}

func TestParseQuantityCoercion(t *testing.T) {
	raw := strings.Join([]string{
		orderLine("キャベツ", "１５", "20260831"),
		orderLine("タマネギ", "たくさん", "20260831"),
	}, "\n")
	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 2 {
		t.Fatalf("records = %d", len(res.Records))
	}
	if res.Records[0].Quantity != 15 {
		t.Fatalf("fullwidth quantity = %v", res.Records[0].Quantity)
	}
	if res.Records[1].Quantity != 0 {
		t.Fatalf("unparsable quantity must coerce to 0, got %v", res.Records[1].Quantity)
	}
}

func TestParseNonNumericDatePassthrough(t *testing.T) {
	raw := orderLine("キャベツ", "1", "なるはや")
	res := New(nil).Parse(raw, "田中", testNow)
	if len(res.Records) != 1 {
		t.Fatalf("records = %d", len(res.Records))
	}
	if res.Records[0].RequestedDate != "なるはや" {
		t.Fatalf("date = %q, want passthrough", res.Records[0].RequestedDate)
	}
}

func TestParseEmptyInput(t *testing.T) {
	res := New(nil).Parse("   \n  ", "田中", testNow)
	if len(res.Records) != 0 || len(res.Rejected) != 0 {
		t.Fatalf("empty input must yield empty result: %+v", res)
	}
}
