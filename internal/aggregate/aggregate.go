// Package aggregate merges incoming order records into a day's raw log and
// derives the grouped summary view.
package aggregate

import (
	"context"
	"sort"

	"orderintake/internal"
	"orderintake/internal/normalize"
)

// Merge appends incoming records to the existing raw log. The raw log has
// append-only audit semantics; consolidation happens in Summarize only.
func Merge(existing, incoming []internal.OrderRecord) []internal.OrderRecord {
	out := make([]internal.OrderRecord, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	out = append(out, incoming...)
	return out
}

// Summarize normalizes every record, groups by the aggregation key and sums
// quantities. Per-line fields (customer, orderer, delivery location, capture
// stamp, handler) are blanked; the note keeps the first group member's value.
// Output order is the full canonical key ascending, so re-running on the same
// input reproduces the rows byte for byte.
func Summarize(ctx context.Context, n *normalize.Normalizer, records []internal.OrderRecord) []internal.OrderRecord {
	groups := map[internal.AggregationKey]*internal.OrderRecord{}
	for _, r := range records {
		c := n.Record(ctx, r)
		key := c.Key()
		if row, ok := groups[key]; ok {
			row.Quantity += c.Quantity
			continue
		}
		groups[key] = &internal.OrderRecord{
			Product:       c.Product,
			Size:          c.Size,
			Quantity:      c.Quantity,
			Unit:          c.Unit,
			RequestedDate: c.RequestedDate,
			Note:          c.Note,
		}
	}

	rows := make([]internal.OrderRecord, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.RequestedDate < b.RequestedDate
	})
	return rows
}
