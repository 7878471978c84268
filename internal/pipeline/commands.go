package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderintake/internal"
	"orderintake/internal/aggregate"
	"orderintake/internal/objstore"
	"orderintake/internal/rollover"
	"orderintake/internal/suppliers"
	"orderintake/internal/util"
	"orderintake/internal/views"
	"orderintake/internal/workbook"
)

// Command strings recognized in chat. The comparison is exact after trimming
// surrounding whitespace; anything else is treated as an order message.
const (
	CmdBuildSummary      = "build aggregation summary"
	CmdBuildPickingList  = "build picking list"
	CmdBuildPurchaseList = "build purchase list"
	CmdBuildPurchaseDocs = "build purchase documents"
	CmdBuildBacklogs     = "build backlog sheets"
	CmdMigrateBacklog    = "migrate backlog from previous day"
)

func newTraceID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// RunCommand dispatches a recognized command against today's dataset. The
// first return value reports whether text named a command at all; callers
// fall back to order ingestion when it did not.
func (s *Service) RunCommand(ctx context.Context, text string) (bool, error) {
	cmd := strings.TrimSpace(text)
	date := util.DateKey(s.now())

	var run func(context.Context, string) error
	switch cmd {
	case CmdBuildSummary:
		run = s.BuildSummary
	case CmdBuildPickingList:
		run = s.BuildPickingList
	case CmdBuildPurchaseList:
		run = s.BuildPurchaseList
	case CmdBuildPurchaseDocs:
		run = s.BuildPurchaseDocs
	case CmdBuildBacklogs:
		run = s.BuildBacklogs
	case CmdMigrateBacklog:
		run = s.MigrateBacklog
	default:
		return false, nil
	}

	traceID := newTraceID()
	started := time.Now()
	err := run(ctx, date)
	if s.db != nil {
		_ = s.db.InsertRun(traceID, cmd, date, float64(time.Since(started).Milliseconds()))
	}
	if err != nil {
		return true, fmt.Errorf("command %q [%s]: %w", cmd, traceID, err)
	}
	fmt.Printf("command %q done [%s] in %s\n", cmd, traceID, time.Since(started).Round(time.Millisecond))
	return true, nil
}

// BuildSummary rebuilds the Summary sheet from the day's raw log: rows are
// normalized, grouped and summed per (product, size, unit, requested date).
func (s *Service) BuildSummary(ctx context.Context, date string) error {
	return s.updateDay(ctx, date, func(day *workbook.DaySheet) error {
		summary := aggregate.Summarize(ctx, s.norm, day.Records(workbook.SheetRawOrders))
		day.SetTable(workbook.SheetSummary, internal.RecordsToTable(summary))
		return nil
	})
}

// BuildPickingList rebuilds the PickingList sheet: raw rows plus any
// prior-day backlog import whose requested date is today.
func (s *Service) BuildPickingList(ctx context.Context, date string) error {
	return s.updateDay(ctx, date, func(day *workbook.DaySheet) error {
		pool := append(day.Records(workbook.SheetRawOrders),
			day.Records(workbook.SheetOrderBacklog+workbook.ImportSuffix)...)
		picking := views.BuildPickingList(pool, date)
		day.SetTable(workbook.SheetPickingList, internal.RecordsToTable(picking))
		return nil
	})
}

// BuildBacklogs rebuilds both backlog sheets, each keeping only rows
// requested after today. The pool is the raw log plus the prior-day import:
// an order still undelivered after several days must keep riding the backlog
// chain until its date arrives. PurchaseBacklog is the summarized form of the
// same pool.
func (s *Service) BuildBacklogs(ctx context.Context, date string) error {
	return s.updateDay(ctx, date, func(day *workbook.DaySheet) error {
		pool := append(day.Records(workbook.SheetRawOrders),
			day.Records(workbook.SheetOrderBacklog+workbook.ImportSuffix)...)
		orderBacklog := views.BuildBacklog(pool, date, s.cfg.BacklogIncludeUndated)
		day.SetTable(workbook.SheetOrderBacklog, internal.RecordsToTable(orderBacklog))

		summary := aggregate.Summarize(ctx, s.norm, pool)
		purchaseBacklog := views.BuildBacklog(summary, date, s.cfg.BacklogIncludeUndated)
		day.SetTable(workbook.SheetPurchaseBacklog, internal.RecordsToTable(purchaseBacklog))
		return nil
	})
}

// BuildPurchaseList rebuilds the PurchaseList and Unmatched sheets by joining
// the day's summary against the supplier tag workbook.
func (s *Service) BuildPurchaseList(ctx context.Context, date string) error {
	idx, err := s.loadSupplierIndex(ctx)
	if err != nil {
		return err
	}
	return s.updateDay(ctx, date, func(day *workbook.DaySheet) error {
		summary := aggregate.Summarize(ctx, s.norm, day.Records(workbook.SheetRawOrders))
		pl := views.BuildPurchaseList(summary, idx)
		day.SetTable(workbook.SheetPurchaseList, views.PurchaseTable(pl.Rows))
		day.SetTable(workbook.SheetUnmatched, views.UnmatchedTable(pl.Unmatched))
		if len(pl.Unmatched) > 0 {
			fmt.Printf("purchase list: %d rows have no supplier tag\n", len(pl.Unmatched))
		}
		return nil
	})
}

// BuildPurchaseDocs renders one purchase-order workbook per matched supplier
// into the day's Documents folder.
func (s *Service) BuildPurchaseDocs(ctx context.Context, date string) error {
	idx, err := s.loadSupplierIndex(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.acquire(date)
	day, err := s.loadDay(ctx, date)
	unlock()
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return fmt.Errorf("no dataset exists for %s yet", date)
		}
		return err
	}

	summary := aggregate.Summarize(ctx, s.norm, day.Records(workbook.SheetRawOrders))
	pl := views.BuildPurchaseList(summary, idx)

	generated := util.VerboseStamp(s.now())
	for _, supplier := range pl.Suppliers() {
		rows := pl.RowsFor(supplier)
		blob, truncated, err := views.RenderPurchaseDocument(supplier, rows, generated, s.cfg.PurchaseDocMaxRows)
		if err != nil {
			return fmt.Errorf("render purchase document for %s: %w", supplier, err)
		}
		if truncated > 0 {
			fmt.Printf("purchase document for %s: %d rows over the %d-row limit were dropped\n",
				supplier, truncated, s.cfg.PurchaseDocMaxRows)
		}
		path := fmt.Sprintf("%s/PurchaseOrder_%s_%s.xlsx", s.dayFolder(date, "Documents"), pathSegment(supplier), date)
		if err := s.store.Put(ctx, path, blob); err != nil {
			return fmt.Errorf("upload purchase document for %s: %w", supplier, err)
		}
	}
	fmt.Printf("purchase documents: %d suppliers, %d unmatched rows\n", len(pl.Suppliers()), len(pl.Unmatched))
	return nil
}

// MigrateBacklog copies the previous day's backlog sheets into today's
// dataset as import sheets. A missing previous-day dataset is reported as
// rollover.ErrNoPreviousDay so callers can treat it as a notice.
func (s *Service) MigrateBacklog(ctx context.Context, date string) error {
	prevDate, err := util.PreviousDay(date)
	if err != nil {
		return err
	}

	prev, err := s.loadDay(ctx, prevDate)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return fmt.Errorf("dataset for %s: %w", prevDate, rollover.ErrNoPreviousDay)
		}
		return err
	}

	return s.updateDay(ctx, date, func(day *workbook.DaySheet) error {
		n := rollover.Migrate(prev, day)
		fmt.Printf("migrated %d backlog sheet(s) from %s into %s\n", n, prevDate, date)
		return nil
	})
}

// updateDay loads, mutates and re-uploads the day dataset under its lock,
// creating an empty dataset when none exists yet.
func (s *Service) updateDay(ctx context.Context, date string, mutate func(*workbook.DaySheet) error) error {
	unlock := s.locks.acquire(date)
	defer unlock()

	day, err := s.loadDay(ctx, date)
	if errors.Is(err, objstore.ErrNotFound) {
		day = workbook.NewDaySheet(date)
	} else if err != nil {
		return err
	}

	if err := mutate(day); err != nil {
		return err
	}
	return s.saveDay(ctx, day)
}

// pathSegment keeps a free-text value usable as a single file-name segment:
// separators would otherwise open extra folder levels in the store hierarchy.
func pathSegment(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func (s *Service) loadSupplierIndex(ctx context.Context) (*suppliers.Index, error) {
	idx, err := suppliers.Load(ctx, s.store, s.cfg.StoreRoot+"/"+s.cfg.SupplierTagsFile)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, fmt.Errorf("supplier tag file %s has not been uploaded yet", s.cfg.SupplierTagsFile)
		}
		return nil, err
	}
	return idx, nil
}
