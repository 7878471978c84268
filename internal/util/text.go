package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// FoldWidth maps fullwidth ASCII to halfwidth and halfwidth katakana to
// fullwidth katakana (the canonical width mapping). Folding emits voiced
// katakana as base rune + combining mark, so the result is recomposed to NFC
// to keep a single byte form per glyph.
func FoldWidth(input string) string {
	return norm.NFC.String(width.Fold.String(input))
}

// HiraganaToKatakana shifts every hiragana rune into the katakana block.
func HiraganaToKatakana(input string) string {
	out := strings.Builder{}
	out.Grow(len(input))
	for _, r := range input {
		if r >= 'ぁ' && r <= 'ゖ' {
			r += 0x60
		}
		out.WriteRune(r)
	}
	return out.String()
}

// NormalizeScript is the deterministic canonical form for free-text fields:
// width folding, hiragana to katakana, trimmed. Two spellings a human would
// read as the same word must come out identical.
func NormalizeScript(input string) string {
	s := FoldWidth(input)
	s = HiraganaToKatakana(s)
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}

// NormalizeSize canonicalizes a size token: halfwidth, uppercase, trimmed.
func NormalizeSize(input string) string {
	return strings.ToUpper(strings.TrimSpace(FoldWidth(input)))
}

// IsDayStamp reports whether s is a fixed-width YYYYMMDD string. Only such
// values participate in date comparisons; anything else is passed through
// untouched by the pipeline.
func IsDayStamp(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
