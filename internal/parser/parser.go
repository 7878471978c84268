// Package parser turns one blob of extraction output into validated order
// records. Malformed lines never abort the batch; they are reported back for
// diagnostics instead.
package parser

import (
	"strings"
	"time"

	"orderintake/internal"
	"orderintake/internal/normalize"
	"orderintake/internal/util"
)

// Refusal and filler phrases the extraction model emits instead of data.
// A line containing any of these is rejected, never parsed.
var defaultFillerPhrases = []string{
	"i'm sorry",
	"i am sorry",
	"cannot extract",
	"申し訳ありません",
	"直接抽出することはできません",
}

// Boilerplate closers the model appends after the data lines.
var defaultFillerPrefixes = []string{
	"この情報",
	"以上です",
}

type Parser struct {
	header   []string
	phrases  []string
	prefixes []string
}

// New builds a parser for the given header schema. A nil header uses the
// canonical column order.
func New(header []string) *Parser {
	if header == nil {
		header = internal.Header()
	}
	return &Parser{
		header:   header,
		phrases:  defaultFillerPhrases,
		prefixes: defaultFillerPrefixes,
	}
}

type Result struct {
	Records  []internal.OrderRecord
	Rejected []string
}

// Parse splits rawText into lines and validates each against the header
// schema. CapturedAt is stamped from now and Handler from operator, whatever
// the extraction returned. If no line survives, the whole raw text becomes a
// single rejected entry so an operator can inspect it. Parse never fails.
func (p *Parser) Parse(rawText, operator string, now time.Time) Result {
	res := Result{}
	if strings.TrimSpace(rawText) == "" {
		return res
	}

	stamp := util.HourStamp(now)
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		if p.isFiller(line) {
			res.Rejected = append(res.Rejected, line)
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != len(p.header) {
			res.Rejected = append(res.Rejected, line)
			continue
		}
		rec := p.recordFromFields(fields)
		rec.CapturedAt = stamp
		rec.Handler = operator
		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 {
		// Preserve the full blob as one diagnostic entry.
		return Result{Rejected: []string{rawText}}
	}
	return res
}

func (p *Parser) isFiller(line string) bool {
	if line == "..." || line == "…" {
		return true
	}
	lower := strings.ToLower(line)
	for _, phrase := range p.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func (p *Parser) recordFromFields(fields []string) internal.OrderRecord {
	rec := internal.OrderRecord{}
	for i, name := range p.header {
		value := strings.TrimSpace(fields[i])
		switch name {
		case internal.ColCustomer:
			rec.Customer = value
		case internal.ColOrderer:
			rec.Orderer = value
		case internal.ColProduct:
			rec.Product = value
		case internal.ColSize:
			rec.Size = value
		case internal.ColQuantity:
			rec.Quantity = normalize.Quantity(value)
		case internal.ColUnit:
			rec.Unit = value
		case internal.ColRequestedDate:
			// Non-numeric dates pass through unchanged.
			rec.RequestedDate = value
		case internal.ColDeliveryLocation:
			rec.DeliveryLocation = value
		case internal.ColCapturedAt:
			// Discarded: only the system clock is authoritative.
		case internal.ColHandler:
			// Discarded: set from the sender display name.
		case internal.ColNote:
			rec.Note = value
		}
	}
	return rec
}
