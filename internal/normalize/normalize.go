package normalize

import (
	"context"
	"strings"
	"unicode/utf8"

	"orderintake/internal"
	"orderintake/internal/util"
)

// TokenSource is an optional secondary extraction call constrained to return
// one short canonical token. kind is "product" or "unit"; hint carries the
// product name when canonicalizing a unit.
type TokenSource interface {
	CanonicalToken(ctx context.Context, kind, value, hint string) (string, error)
}

type Normalizer struct {
	tokens TokenSource
}

// New builds a normalizer. tokens may be nil, in which case every field is
// canonicalized by deterministic rules only.
func New(tokens TokenSource) *Normalizer {
	return &Normalizer{tokens: tokens}
}

// Known spellings mapped to one representative form. Keys are already
// script-normalized (NormalizeScript output).
var productSynonyms = map[string]string{
	"タマネギ":  "タマネギ",
	"玉ネギ":   "タマネギ",
	"玉葱":    "タマネギ",
	"オニオン":  "タマネギ",
	"ジャガイモ": "ジャガイモ",
	"ジャガ芋":  "ジャガイモ",
	"馬鈴薯":   "ジャガイモ",
	"ポテト":   "ジャガイモ",
	"ニンジン":  "ニンジン",
	"人参":    "ニンジン",
	"キャロット": "ニンジン",
	"キャベツ":  "キャベツ",
	"ダイコン":  "ダイコン",
	"大根":    "ダイコン",
	"ネギ":    "ネギ",
	"葱":     "ネギ",
}

// Unit classes, matched case-insensitively after script normalization.
// Gram-class units convert the value to kilograms.
var (
	gramUnits = map[string]bool{"G": true, "グラム": true, "GRAM": true, "GRAMS": true}
	kiloUnits = map[string]bool{"KG": true, "キロ": true, "キログラム": true, "KILOGRAM": true}

	unitSynonyms = map[string]string{
		"個":    "個",
		"コ":    "個",
		"ヶ":    "個",
		"ピース":  "個",
		"PC":   "個",
		"PCS":  "個",
		"本":    "本",
		"ケース":  "ケース",
		"CS":   "ケース",
		"袋":    "袋",
		"フクロ":  "袋",
		"枚":    "枚",
		"箱":    "箱",
		"ハコ":   "箱",
		"パック":  "パック",
		"束":    "束",
		"タバ":   "束",
		"L":    "L",
		"リットル": "L",
	}
)

const kiloCanonical = "kg"

// ProductName maps known synonym sets to one representative spelling.
// Unrecognized names pass through script-normalized; the secondary token call
// may refine them, but only a response that survives the anomaly checks is
// trusted.
func (n *Normalizer) ProductName(ctx context.Context, raw string) string {
	base := util.NormalizeScript(raw)
	if base == "" {
		return ""
	}
	if canon, ok := productSynonyms[base]; ok {
		return canon
	}
	if n.tokens != nil {
		if tok, ok := n.askToken(ctx, "product", base, ""); ok {
			if canon, mapped := productSynonyms[tok]; mapped {
				return canon
			}
			return tok
		}
	}
	return base
}

// Size canonicalizes a size token: halfwidth, uppercase, trimmed.
func Size(raw string) string {
	return util.NormalizeSize(raw)
}

// Quantity coerces a raw quantity field to a number; failures yield 0.
func Quantity(raw string) float64 {
	return util.ParseQuantity(raw)
}

// Unit canonicalizes a unit and applies unit-class conversion: gram-class
// units divide the quantity by 1000 and rewrite the unit to kg; kilogram-class
// units keep the value; every other unit is canonicalized in spelling only.
func (n *Normalizer) Unit(ctx context.Context, product, raw string, qty float64) (string, float64) {
	base := util.NormalizeScript(raw)
	if base == "" {
		return "", qty
	}
	if unit, converted, ok := classifyUnit(base, qty); ok {
		return unit, converted
	}
	if n.tokens != nil {
		if tok, ok := n.askToken(ctx, "unit", base, product); ok {
			if unit, converted, ok2 := classifyUnit(tok, qty); ok2 {
				return unit, converted
			}
			return tok, qty
		}
	}
	return base, qty
}

// Record returns a copy with every keyed field in canonical form and the
// quantity adjusted by unit conversion. It never fails; anomalies in the
// secondary token call fall back to the deterministic rules.
func (n *Normalizer) Record(ctx context.Context, r internal.OrderRecord) internal.OrderRecord {
	out := r
	out.Product = n.ProductName(ctx, r.Product)
	out.Size = Size(r.Size)
	out.Unit, out.Quantity = n.Unit(ctx, out.Product, r.Unit, r.Quantity)
	out.RequestedDate = strings.TrimSpace(r.RequestedDate)
	return out
}

func classifyUnit(unit string, qty float64) (string, float64, bool) {
	up := strings.ToUpper(unit)
	if gramUnits[up] {
		return kiloCanonical, qty / 1000, true
	}
	if kiloUnits[up] {
		return kiloCanonical, qty, true
	}
	if canon, ok := unitSynonyms[up]; ok {
		return canon, qty, true
	}
	return "", 0, false
}

const maxTokenRunes = 16

// Marker words that indicate the model echoed the prompt or refused instead
// of answering with a bare token. Such responses are never trusted.
var tokenMarkers = []string{
	"商品", "単位", "product", "unit", "canonical",
	"申し訳", "できません", "sorry", "cannot",
	":", "：", "。",
}

func (n *Normalizer) askToken(ctx context.Context, kind, value, hint string) (string, bool) {
	tok, err := n.tokens.CanonicalToken(ctx, kind, value, hint)
	if err != nil {
		return "", false
	}
	return sanitizeToken(tok)
}

func sanitizeToken(tok string) (string, bool) {
	tok = strings.TrimSpace(tok)
	tok = strings.Trim(tok, `"'「」`)
	if tok == "" {
		return "", false
	}
	if strings.ContainsAny(tok, "\r\n") {
		return "", false
	}
	if utf8.RuneCountInString(tok) > maxTokenRunes {
		return "", false
	}
	lower := strings.ToLower(tok)
	for _, marker := range tokenMarkers {
		if strings.Contains(lower, marker) {
			return "", false
		}
	}
	return util.NormalizeScript(tok), true
}
