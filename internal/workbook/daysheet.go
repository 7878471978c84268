package workbook

import (
	"orderintake/internal"
)

// Sheet names inside a day workbook. Derived sheets are fully replaced each
// time their generating command runs; the raw log is append-only.
const (
	SheetRawOrders       = "RawOrders"
	SheetSummary         = "Summary"
	SheetPickingList     = "PickingList"
	SheetOrderBacklog    = "OrderBacklog"
	SheetPurchaseBacklog = "PurchaseBacklog"
	SheetPurchaseList    = "PurchaseList"
	SheetUnmatched       = "Unmatched"

	// Suffix for sheets imported from the previous day's dataset. They are
	// kept apart from the day's native data to preserve provenance. Kept
	// short: excelize rejects sheet names over 31 characters, and the longest
	// migrated name must still fit.
	ImportSuffix = " (import)"
)

// DaySheet is the persisted unit of state for one calendar day.
type DaySheet struct {
	Date   string
	sheets map[string]internal.Table
	order  []string
}

// NewDaySheet creates an empty dataset with a header-only raw log.
func NewDaySheet(date string) *DaySheet {
	d := &DaySheet{Date: date, sheets: map[string]internal.Table{}}
	d.SetTable(SheetRawOrders, internal.Table{internal.Header()})
	return d
}

func (d *DaySheet) Table(name string) (internal.Table, bool) {
	t, ok := d.sheets[name]
	return t, ok
}

// SetTable fully replaces a sheet, appending it to the sheet order on first
// write.
func (d *DaySheet) SetTable(name string, t internal.Table) {
	if _, ok := d.sheets[name]; !ok {
		d.order = append(d.order, name)
	}
	d.sheets[name] = t
}

func (d *DaySheet) SheetNames() []string {
	return append([]string(nil), d.order...)
}

// Records decodes a sheet into order records; a missing sheet yields nil.
func (d *DaySheet) Records(name string) []internal.OrderRecord {
	t, ok := d.sheets[name]
	if !ok {
		return nil
	}
	return internal.TableToRecords(t)
}

// AppendRecords appends to the raw log, creating it if absent.
func (d *DaySheet) AppendRecords(records []internal.OrderRecord) {
	t, ok := d.sheets[SheetRawOrders]
	if !ok || len(t) == 0 {
		t = internal.Table{internal.Header()}
	}
	for _, r := range records {
		t = append(t, r.Row())
	}
	d.SetTable(SheetRawOrders, t)
}

// EncodeDaySheet serializes the dataset to one xlsx blob.
func EncodeDaySheet(d *DaySheet) ([]byte, error) {
	return Encode(d.sheets, d.order)
}

// DecodeDaySheet restores a dataset from its xlsx blob.
func DecodeDaySheet(date string, blob []byte) (*DaySheet, error) {
	sheets, order, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	return &DaySheet{Date: date, sheets: sheets, order: order}, nil
}
