// Package views derives the secondary sheets of a day dataset: the picking
// list for today's deliveries, backlog sheets for future-dated orders, and
// per-supplier purchase lists and documents.
package views

import (
	"sort"

	"orderintake/internal"
	"orderintake/internal/suppliers"
	"orderintake/internal/util"
)

// BuildPickingList returns the rows whose requested date is exactly today,
// preserving the original row order.
func BuildPickingList(records []internal.OrderRecord, today string) []internal.OrderRecord {
	out := make([]internal.OrderRecord, 0)
	for _, r := range records {
		if r.RequestedDate == today {
			out = append(out, r)
		}
	}
	return out
}

// BuildBacklog returns the rows dated after today. The string comparison is
// valid because day stamps are fixed-width YYYYMMDD; rows without a valid day
// stamp are excluded unless includeUndated is set.
func BuildBacklog(records []internal.OrderRecord, today string, includeUndated bool) []internal.OrderRecord {
	out := make([]internal.OrderRecord, 0)
	for _, r := range records {
		if !util.IsDayStamp(r.RequestedDate) {
			if includeUndated {
				out = append(out, r)
			}
			continue
		}
		if r.RequestedDate > today {
			out = append(out, r)
		}
	}
	return out
}

// PurchaseRow is a summary row joined to its supplier tag. A row that found
// no tag keeps an empty Supplier and lands in the unmatched bucket.
type PurchaseRow struct {
	internal.OrderRecord
	Supplier   string
	PostalCode string
	Address    string
	TaxRate    float64
}

type PurchaseList struct {
	Rows       []PurchaseRow // every summary row, matched or not, in input order
	Unmatched  []PurchaseRow
	bySupplier map[string][]PurchaseRow
}

// BuildPurchaseList joins each summary row to the supplier tag table with the
// (product, "") size fallback. Rows without any match are retained for
// operator review but excluded from the per-supplier grouping.
func BuildPurchaseList(summary []internal.OrderRecord, idx *suppliers.Index) PurchaseList {
	pl := PurchaseList{bySupplier: map[string][]PurchaseRow{}}
	for _, rec := range summary {
		row := PurchaseRow{OrderRecord: rec}
		if tag, ok := idx.Lookup(rec.Product, rec.Size); ok && tag.Supplier != "" {
			row.Supplier = tag.Supplier
			row.PostalCode = tag.PostalCode
			row.Address = tag.Address
			row.TaxRate = tag.TaxRate
			pl.bySupplier[tag.Supplier] = append(pl.bySupplier[tag.Supplier], row)
		} else {
			pl.Unmatched = append(pl.Unmatched, row)
		}
		pl.Rows = append(pl.Rows, row)
	}
	return pl
}

// Suppliers returns the resolved supplier names, sorted. Groups with a blank
// supplier are never emitted.
func (pl PurchaseList) Suppliers() []string {
	names := make([]string, 0, len(pl.bySupplier))
	for name := range pl.bySupplier {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (pl PurchaseList) RowsFor(supplier string) []PurchaseRow {
	return pl.bySupplier[supplier]
}

// PurchaseHeader extends the canonical column order with the joined supplier
// fields.
func PurchaseHeader() []string {
	return append(internal.Header(), "Supplier", "PostalCode", "Address", "TaxRate")
}

func PurchaseTable(rows []PurchaseRow) internal.Table {
	out := make(internal.Table, 0, len(rows)+1)
	out = append(out, PurchaseHeader())
	for _, row := range rows {
		out = append(out, append(row.Row(),
			row.Supplier, row.PostalCode, row.Address, internal.FormatQuantity(row.TaxRate)))
	}
	return out
}

func UnmatchedTable(rows []PurchaseRow) internal.Table {
	out := make(internal.Table, 0, len(rows)+1)
	out = append(out, internal.Header())
	for _, row := range rows {
		out = append(out, row.Row())
	}
	return out
}
