// Package rollover carries unresolved backlog sheets from the previous day's
// dataset into the current day's dataset as clearly labeled imports.
package rollover

import (
	"errors"

	"orderintake/internal/workbook"
)

// ErrNoPreviousDay reports that there is nothing to migrate. Callers treat it
// as a notice, not a failure of the service.
var ErrNoPreviousDay = errors.New("previous day dataset not found")

// Sheets that roll over. The picking list is intentionally not carried.
var migratedSheets = []string{
	workbook.SheetOrderBacklog,
	workbook.SheetPurchaseBacklog,
}

// Migrate copies the previous day's backlog sheets into cur under the import
// suffix, fully replacing any earlier import. The current day's raw log is
// never touched, so provenance stays intact and repeat invocations are
// idempotent. Returns the number of sheets imported.
func Migrate(prev, cur *workbook.DaySheet) int {
	imported := 0
	for _, name := range migratedSheets {
		table, ok := prev.Table(name)
		if !ok {
			continue
		}
		cur.SetTable(name+workbook.ImportSuffix, table.Clone())
		imported++
	}
	return imported
}
