// Package pipeline orchestrates the intake flow: archive the inbound message,
// run extraction, parse the result, and merge the records into the persisted
// day dataset. It also dispatches the derived-view commands.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderintake/internal"
	"orderintake/internal/config"
	"orderintake/internal/normalize"
	"orderintake/internal/objstore"
	"orderintake/internal/parser"
	"orderintake/internal/storage"
	"orderintake/internal/util"
	"orderintake/internal/workbook"
)

// Extractor is the extraction service surface the pipeline needs. It embeds
// the secondary canonical-token call the normalizer may use.
type Extractor interface {
	normalize.TokenSource
	ExtractText(ctx context.Context, text, operator string, now time.Time) (string, error)
	ExtractImage(ctx context.Context, image []byte, operator string, now time.Time) (string, error)
}

type Service struct {
	cfg    config.Config
	store  objstore.Store
	ai     Extractor
	db     *storage.DB
	norm   *normalize.Normalizer
	parser *parser.Parser
	loc    *time.Location
	locks  *dayLocks
}

// NewService wires the pipeline. ai may be nil for commands that only derive
// views from already-persisted data; normalization then runs rule-only.
func NewService(cfg config.Config, store objstore.Store, ai Extractor, db *storage.DB) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	var tokens normalize.TokenSource
	if ai != nil {
		tokens = ai
	}

	return &Service{
		cfg:    cfg,
		store:  store,
		ai:     ai,
		db:     db,
		norm:   normalize.New(tokens),
		parser: parser.New(nil),
		loc:    loc,
		locks:  newDayLocks(),
	}, nil
}

func (s *Service) now() time.Time {
	return time.Now().In(s.loc)
}

// IngestText archives and extracts a free-text order message. Returns the
// number of records merged into the day dataset.
func (s *Service) IngestText(ctx context.Context, operator, text string) (int, error) {
	now := s.now()
	date := util.DateKey(now)

	archive := s.dayFolder(date, "Text") + "/" + now.Format("20060102_1504") + ".txt"
	msgID, err := s.archiveMessage(ctx, internal.KindText, operator, now, archive, []byte(text))
	if err != nil {
		return 0, err
	}

	raw, err := s.ai.ExtractText(ctx, text, operator, now)
	if err != nil {
		_ = s.db.UpdateMessageStatus(msgID, "failed")
		return 0, fmt.Errorf("extract text message: %w", err)
	}
	return s.finishExtraction(ctx, msgID, date, operator, now, raw)
}

// IngestImage archives and extracts a photographed order sheet.
func (s *Service) IngestImage(ctx context.Context, operator string, image []byte) (int, error) {
	now := s.now()
	date := util.DateKey(now)

	archive := s.dayFolder(date, "Images") + "/" + now.Format("20060102_1504") + ".jpg"
	msgID, err := s.archiveMessage(ctx, internal.KindImage, operator, now, archive, image)
	if err != nil {
		return 0, err
	}

	raw, err := s.ai.ExtractImage(ctx, image, operator, now)
	if err != nil {
		_ = s.db.UpdateMessageStatus(msgID, "failed")
		return 0, fmt.Errorf("extract image message: %w", err)
	}
	return s.finishExtraction(ctx, msgID, date, operator, now, raw)
}

// IngestDocument archives a multi-page scanned document and runs every page
// through extraction, concatenating the results into one parse.
func (s *Service) IngestDocument(ctx context.Context, operator, fileName string, blob []byte) (int, error) {
	now := s.now()
	date := util.DateKey(now)

	archive := s.dayFolder(date, "Documents") + "/" + fileName
	msgID, err := s.archiveMessage(ctx, internal.KindFile, operator, now, archive, blob)
	if err != nil {
		return 0, err
	}

	pages, err := pdfPageTexts(blob)
	if err != nil {
		_ = s.db.UpdateMessageStatus(msgID, "failed")
		return 0, fmt.Errorf("split document %s: %w", fileName, err)
	}

	parts := make([]string, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			fmt.Printf("document %s: page %d has no extractable text, skipped\n", fileName, i+1)
			continue
		}
		raw, err := s.ai.ExtractText(ctx, page, operator, now)
		if err != nil {
			_ = s.db.UpdateMessageStatus(msgID, "failed")
			return 0, fmt.Errorf("extract document page %d: %w", i+1, err)
		}
		if raw != "" {
			parts = append(parts, raw)
		}
	}
	return s.finishExtraction(ctx, msgID, date, operator, now, strings.Join(parts, "\n"))
}

// StoreConfigFile stores one of the reserved configuration workbooks at the
// hierarchy root, bypassing extraction.
func (s *Service) StoreConfigFile(ctx context.Context, fileName string, blob []byte) error {
	return s.store.Put(ctx, s.cfg.StoreRoot+"/"+fileName, blob)
}

// IsConfigFile reports whether fileName is one of the two reserved
// configuration filenames.
func (s *Service) IsConfigFile(fileName string) bool {
	return fileName == s.cfg.SupplierTagsFile || fileName == s.cfg.PurchaseTemplateFile
}

func (s *Service) archiveMessage(ctx context.Context, kind internal.MessageKind, operator string, now time.Time, path string, payload []byte) (int, error) {
	unique, err := objstore.UniquePath(ctx, s.store, path)
	if err != nil {
		return 0, fmt.Errorf("resolve archive path: %w", err)
	}
	if err := s.store.Put(ctx, unique, payload); err != nil {
		return 0, fmt.Errorf("archive %s message: %w", kind, err)
	}

	sum := sha256.Sum256(payload)
	msgID, err := s.db.InsertMessage(string(kind), operator, now.Format(time.RFC3339), hex.EncodeToString(sum[:]), unique)
	if err != nil {
		return 0, err
	}
	_ = s.db.UpdateMessageStatus(msgID, "archived")
	return msgID, nil
}

// finishExtraction parses the extraction output, merges the surviving records
// into the day dataset and preserves rejected lines for diagnostics. Per-line
// problems never fail the run; only store I/O does.
func (s *Service) finishExtraction(ctx context.Context, msgID int, date, operator string, now time.Time, raw string) (int, error) {
	res := s.parser.Parse(raw, operator, now)

	diagRef := ""
	if len(res.Rejected) > 0 {
		ref, err := s.writeDiagnostic(ctx, date, res.Rejected)
		if err != nil {
			fmt.Printf("diagnostic write failed: %v\n", err)
		} else {
			diagRef = ref
		}
	}
	_ = s.db.InsertExtraction(msgID, len(res.Records), len(res.Rejected), diagRef)

	if len(res.Records) == 0 {
		_ = s.db.UpdateMessageStatus(msgID, "empty")
		fmt.Printf("no valid order lines extracted (rejected=%d)\n", len(res.Rejected))
		return 0, nil
	}

	if err := s.appendToDay(ctx, date, res.Records); err != nil {
		_ = s.db.UpdateMessageStatus(msgID, "failed")
		return 0, err
	}
	_ = s.db.UpdateMessageStatus(msgID, "extracted")
	return len(res.Records), nil
}

func (s *Service) writeDiagnostic(ctx context.Context, date string, rejected []string) (string, error) {
	path := s.dayFolder(date, "Text") + "/rejected_" + uuid.NewString() + ".txt"
	if err := s.store.Put(ctx, path, []byte(strings.Join(rejected, "\n"))); err != nil {
		return "", err
	}
	return path, nil
}

// appendToDay merges records into the day's raw log under the per-day lock,
// creating the dataset on the first order of the day. The workbook is only
// re-uploaded after it has been fully rebuilt in memory.
func (s *Service) appendToDay(ctx context.Context, date string, records []internal.OrderRecord) error {
	unlock := s.locks.acquire(date)
	defer unlock()

	day, err := s.loadDay(ctx, date)
	if errors.Is(err, objstore.ErrNotFound) {
		day = workbook.NewDaySheet(date)
	} else if err != nil {
		return err
	}

	day.AppendRecords(records)
	return s.saveDay(ctx, day)
}

func (s *Service) dayFolder(date, sub string) string {
	return s.cfg.StoreRoot + "/" + date + "/" + sub
}

func (s *Service) workbookPath(date string) string {
	return fmt.Sprintf("%s/%s/Aggregation/Aggregation_%s.xlsx", s.cfg.StoreRoot, date, date)
}

func (s *Service) loadDay(ctx context.Context, date string) (*workbook.DaySheet, error) {
	blob, err := s.store.Get(ctx, s.workbookPath(date))
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("download day dataset %s: %w", date, err)
	}
	return workbook.DecodeDaySheet(date, blob)
}

func (s *Service) saveDay(ctx context.Context, day *workbook.DaySheet) error {
	blob, err := workbook.EncodeDaySheet(day)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.workbookPath(day.Date), blob); err != nil {
		return fmt.Errorf("upload day dataset %s: %w", day.Date, err)
	}
	return nil
}
