package internal

import (
	"strconv"
	"strings"
)

type MessageKind string

const (
	KindImage MessageKind = "image"
	KindText  MessageKind = "text"
	KindFile  MessageKind = "file"
)

// OrderRecord is one order line. Product, Size and Unit hold canonical forms
// once a record has passed through the normalizer; RequestedDate is YYYYMMDD
// when the extraction resolved it, otherwise the raw string is carried as-is.
type OrderRecord struct {
	Customer         string
	Orderer          string
	Product          string
	Size             string
	Quantity         float64
	Unit             string
	RequestedDate    string
	DeliveryLocation string
	CapturedAt       string // YYYYMMDDHH, stamped from the system clock
	Handler          string // sender display name, never taken from extraction output
	Note             string
}

// AggregationKey identifies summable order lines.
type AggregationKey struct {
	Product       string
	Size          string
	Unit          string
	RequestedDate string
}

func (r OrderRecord) Key() AggregationKey {
	return AggregationKey{Product: r.Product, Size: r.Size, Unit: r.Unit, RequestedDate: r.RequestedDate}
}

const (
	ColCustomer         = "Customer"
	ColOrderer          = "Orderer"
	ColProduct          = "Product"
	ColSize             = "Size"
	ColQuantity         = "Quantity"
	ColUnit             = "Unit"
	ColRequestedDate    = "RequestedDate"
	ColDeliveryLocation = "DeliveryLocation"
	ColCapturedAt       = "CapturedAt"
	ColHandler          = "Handler"
	ColNote             = "Note"
)

// Header is the canonical column order used by the extraction prompt, the
// parser and every persisted sheet.
func Header() []string {
	return []string{
		ColCustomer, ColOrderer, ColProduct, ColSize, ColQuantity, ColUnit,
		ColRequestedDate, ColDeliveryLocation, ColCapturedAt, ColHandler, ColNote,
	}
}

// Table is a rectangular sheet payload, first row is the header.
type Table [][]string

func (t Table) Clone() Table {
	out := make(Table, 0, len(t))
	for _, row := range t {
		out = append(out, append([]string(nil), row...))
	}
	return out
}

// FormatQuantity renders a quantity so that decode(encode(q)) == q.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func ParseStoredQuantity(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func (r OrderRecord) Row() []string {
	return []string{
		r.Customer, r.Orderer, r.Product, r.Size, FormatQuantity(r.Quantity), r.Unit,
		r.RequestedDate, r.DeliveryLocation, r.CapturedAt, r.Handler, r.Note,
	}
}

func RecordFromRow(row []string) OrderRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return OrderRecord{
		Customer:         get(0),
		Orderer:          get(1),
		Product:          get(2),
		Size:             get(3),
		Quantity:         ParseStoredQuantity(get(4)),
		Unit:             get(5),
		RequestedDate:    get(6),
		DeliveryLocation: get(7),
		CapturedAt:       get(8),
		Handler:          get(9),
		Note:             get(10),
	}
}

func RecordsToTable(records []OrderRecord) Table {
	out := make(Table, 0, len(records)+1)
	out = append(out, Header())
	for _, r := range records {
		out = append(out, r.Row())
	}
	return out
}

func TableToRecords(t Table) []OrderRecord {
	if len(t) < 2 {
		return nil
	}
	out := make([]OrderRecord, 0, len(t)-1)
	for _, row := range t[1:] {
		out = append(out, RecordFromRow(row))
	}
	return out
}

// SupplierTag maps a (product, size) pair to purchasing contact details.
// Loaded fresh from the externally maintained tag workbook; read-only here.
type SupplierTag struct {
	Product    string
	Size       string
	Supplier   string
	PostalCode string
	Address    string
	TaxRate    float64
}

// MessageRow is one ingest-log entry for an inbound gateway message.
type MessageRow struct {
	ID         int
	Kind       string
	Operator   string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}
