package normalize

import (
	"context"
	"errors"
	"testing"

	"orderintake/internal"
)

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) CanonicalToken(ctx context.Context, kind, value, hint string) (string, error) {
	s.calls++
	return s.token, s.err
}

func TestUnitConversion(t *testing.T) {
	n := New(nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		unit     string
		qty      float64
		wantUnit string
		wantQty  float64
	}{
		{name: "grams to kg", unit: "g", qty: 1500, wantUnit: "kg", wantQty: 1.5},
		{name: "fullwidth grams", unit: "ｇ", qty: 500, wantUnit: "kg", wantQty: 0.5},
		{name: "katakana grams", unit: "グラム", qty: 2000, wantUnit: "kg", wantQty: 2},
		{name: "hiragana grams", unit: "ぐらむ", qty: 1000, wantUnit: "kg", wantQty: 1},
		{name: "kg passthrough", unit: "kg", qty: 3, wantUnit: "kg", wantQty: 3},
		{name: "kilo spelling", unit: "キロ", qty: 2.5, wantUnit: "kg", wantQty: 2.5},
		{name: "piece synonym", unit: "コ", qty: 4, wantUnit: "個", wantQty: 4},
		{name: "case synonym", unit: "cs", qty: 1, wantUnit: "ケース", wantQty: 1},
		{name: "unknown spelling only", unit: "カートン", qty: 7, wantUnit: "カートン", wantQty: 7},
		{name: "empty", unit: "", qty: 2, wantUnit: "", wantQty: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unit, qty := n.Unit(ctx, "キャベツ", tc.unit, tc.qty)
			if unit != tc.wantUnit || qty != tc.wantQty {
				t.Fatalf("got (%q, %v) want (%q, %v)", unit, qty, tc.wantUnit, tc.wantQty)
			}
		})
	}
}

func TestProductNameSynonyms(t *testing.T) {
	n := New(nil)
	ctx := context.Background()

	cases := []struct {
		input string
		want  string
	}{
		{input: "玉葱", want: "タマネギ"},
		{input: "たまねぎ", want: "タマネギ"},
		{input: "オニオン", want: "タマネギ"},
		{input: "じゃが芋", want: "ジャガイモ"},
		{input: "ｷｬﾍﾞﾂ", want: "キャベツ"},
		{input: "特選リンゴ", want: "特選リンゴ"},
	}

	for _, tc := range cases {
		if got := n.ProductName(ctx, tc.input); got != tc.want {
			t.Fatalf("ProductName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTokenAnomalyFallback(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
		err   error
	}{
		{name: "empty response", token: ""},
		{name: "prompt echo with unit marker", token: "単位は本です"},
		{name: "prompt echo with product marker", token: "商品名: ホウレンソウ"},
		{name: "refusal", token: "申し訳ありません"},
		{name: "over-length", token: "とても長い説明文がそのまま返ってきてしまった場合の応答"},
		{name: "multiline", token: "本\n以上です"},
		{name: "call error", token: "本", err: errors.New("boom")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubTokens{token: tc.token, err: tc.err}
			n := New(stub)
			unit, qty := n.Unit(ctx, "キャベツ", "そく", 3)
			if stub.calls != 1 {
				t.Fatalf("token source called %d times", stub.calls)
			}
			// Deterministic fallback: script normalization of the original.
			if unit != "ソク" {
				t.Fatalf("unexpected unit %q", unit)
			}
			if qty != 3 {
				t.Fatalf("quantity changed: %v", qty)
			}
		})
	}
}

func TestTokenAccepted(t *testing.T) {
	stub := &stubTokens{token: "束"}
	n := New(stub)
	unit, qty := n.Unit(context.Background(), "ネギ", "ソク", 2)
	if unit != "束" || qty != 2 {
		t.Fatalf("got (%q, %v)", unit, qty)
	}
}

func TestRecordNormalization(t *testing.T) {
	n := New(nil)
	rec := internal.OrderRecord{
		Customer: "株式会社テスト", Product: "たまねぎ", Size: "ｌ",
		Quantity: 1500, Unit: "g", RequestedDate: " 20260901 ", Note: "急ぎ",
	}
	got := n.Record(context.Background(), rec)
	if got.Product != "タマネギ" || got.Size != "L" || got.Unit != "kg" || got.Quantity != 1.5 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.RequestedDate != "20260901" {
		t.Fatalf("requested date %q", got.RequestedDate)
	}
	if got.Customer != rec.Customer || got.Note != rec.Note {
		t.Fatalf("non-keyed fields must pass through: %+v", got)
	}
}
