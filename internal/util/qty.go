package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reThousandComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseQuantity coerces a raw quantity field to a number. Fullwidth digits are
// folded first; thousand separators and decimal commas are tolerated. Any
// value that still does not parse yields 0 rather than an error.
func ParseQuantity(input string) float64 {
	s := strings.TrimSpace(FoldWidth(input))
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(normalizeNumericToken(s), 64)
	if err != nil {
		return 0
	}
	return parsed
}

func normalizeNumericToken(token string) string {
	if reThousandDot.MatchString(token) {
		return strings.ReplaceAll(token, ".", "")
	}
	if reThousandComma.MatchString(token) {
		return strings.ReplaceAll(token, ",", "")
	}
	if strings.Contains(token, ",") && !strings.Contains(token, ".") {
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}
