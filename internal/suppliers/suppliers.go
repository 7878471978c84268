// Package suppliers loads the externally maintained supplier tag table and
// resolves (product, size) pairs to purchasing contacts. The table is
// read-only to this system and reloaded fresh on every purchase-list run.
package suppliers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderintake/internal"
	"orderintake/internal/objstore"
	"orderintake/internal/util"
)

type tagKey struct {
	Product string
	Size    string
}

type Index struct {
	tags map[tagKey]internal.SupplierTag
}

// NewIndex builds a lookup over canonicalized (product, size) keys. Later
// duplicates win, matching a hand-edited table where the bottom row is the
// freshest.
func NewIndex(tags []internal.SupplierTag) *Index {
	idx := &Index{tags: make(map[tagKey]internal.SupplierTag, len(tags))}
	for _, tag := range tags {
		key := tagKey{Product: util.NormalizeScript(tag.Product), Size: util.NormalizeSize(tag.Size)}
		idx.tags[key] = tag
	}
	return idx
}

// Lookup resolves a tag for the exact (product, size) pair, falling back to
// the size-less (product, "") entry when no size-specific mapping exists.
func (i *Index) Lookup(product, size string) (internal.SupplierTag, bool) {
	p := util.NormalizeScript(product)
	s := util.NormalizeSize(size)
	if tag, ok := i.tags[tagKey{Product: p, Size: s}]; ok {
		return tag, true
	}
	if s != "" {
		if tag, ok := i.tags[tagKey{Product: p, Size: ""}]; ok {
			return tag, true
		}
	}
	return internal.SupplierTag{}, false
}

func (i *Index) Len() int { return len(i.tags) }

// ParseWorkbook reads tags from the first sheet of the tag workbook. Expected
// columns: Product, Size, Supplier, PostalCode, Address, TaxRate. Rows with
// an empty product are skipped.
func ParseWorkbook(blob []byte) ([]internal.SupplierTag, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open supplier tag workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read supplier tag sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	get := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	out := make([]internal.SupplierTag, 0, len(rows)-1)
	for _, row := range rows[1:] {
		product := get(row, 0)
		if product == "" {
			continue
		}
		out = append(out, internal.SupplierTag{
			Product:    product,
			Size:       get(row, 1),
			Supplier:   get(row, 2),
			PostalCode: get(row, 3),
			Address:    get(row, 4),
			TaxRate:    util.ParseQuantity(get(row, 5)),
		})
	}
	return out, nil
}

// Load fetches the tag workbook from the object store and indexes it.
func Load(ctx context.Context, store objstore.Store, path string) (*Index, error) {
	blob, err := store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load supplier tags %s: %w", path, err)
	}
	tags, err := ParseWorkbook(blob)
	if err != nil {
		return nil, err
	}
	return NewIndex(tags), nil
}
