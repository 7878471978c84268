package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"orderintake/internal/config"
	"orderintake/internal/extract"
	"orderintake/internal/objstore"
	"orderintake/internal/pipeline"
	"orderintake/internal/rollover"
	"orderintake/internal/storage"
	"orderintake/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	store, err := makeStore(cfg)
	must(err)

	svc, err := pipeline.NewService(cfg, store, extract.NewClient(cfg), db)
	must(err)

	ctx := context.Background()
	cmd := os.Args[1]
	switch cmd {
	case "ingest:text":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		operator := fs.String("operator", "cli", "operator name stamped on records")
		file := fs.String("file", "", "text file path; stdin when omitted")
		_ = fs.Parse(os.Args[2:])
		text, err := readInput(*file)
		must(err)
		n, err := svc.IngestText(ctx, *operator, text)
		must(err)
		fmt.Printf("ingest done: %d record(s)\n", n)
	case "ingest:image":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		operator := fs.String("operator", "cli", "operator name stamped on records")
		file := fs.String("file", "", "image file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		blob, err := os.ReadFile(*file)
		must(err)
		n, err := svc.IngestImage(ctx, *operator, blob)
		must(err)
		fmt.Printf("ingest done: %d record(s)\n", n)
	case "ingest:pdf":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		operator := fs.String("operator", "cli", "operator name stamped on records")
		file := fs.String("file", "", "pdf file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		blob, err := os.ReadFile(*file)
		must(err)
		n, err := svc.IngestDocument(ctx, *operator, baseName(*file), blob)
		must(err)
		fmt.Printf("ingest done: %d record(s)\n", n)
	case "build:summary":
		must(svc.BuildSummary(ctx, dateArg(cfg, cmd)))
		fmt.Println("summary rebuilt")
	case "build:picking":
		must(svc.BuildPickingList(ctx, dateArg(cfg, cmd)))
		fmt.Println("picking list rebuilt")
	case "build:purchase-list":
		must(svc.BuildPurchaseList(ctx, dateArg(cfg, cmd)))
		fmt.Println("purchase list rebuilt")
	case "build:purchase-docs":
		must(svc.BuildPurchaseDocs(ctx, dateArg(cfg, cmd)))
		fmt.Println("purchase documents rebuilt")
	case "build:backlog":
		must(svc.BuildBacklogs(ctx, dateArg(cfg, cmd)))
		fmt.Println("backlog sheets rebuilt")
	case "migrate:backlog":
		err := svc.MigrateBacklog(ctx, dateArg(cfg, cmd))
		if errors.Is(err, rollover.ErrNoPreviousDay) {
			fmt.Println("nothing to migrate: no dataset for the previous day")
			return
		}
		must(err)
		fmt.Println("backlog migrated")
	default:
		usage()
		os.Exit(1)
	}
}

// dateArg parses the shared --date flag, defaulting to today in the
// configured timezone.
func dateArg(cfg config.Config, cmd string) string {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	date := fs.String("date", "", "target day as YYYYMMDD; today when omitted")
	_ = fs.Parse(os.Args[2:])
	if strings.TrimSpace(*date) != "" {
		if !util.IsDayStamp(*date) {
			must(fmt.Errorf("--date must be YYYYMMDD, got %q", *date))
		}
		return *date
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	must(err)
	return util.DateKey(time.Now().In(loc))
}

func makeStore(cfg config.Config) (objstore.Store, error) {
	switch cfg.StoreBackend {
	case "local":
		return objstore.NewLocalStore(cfg.DataDir), nil
	case "drive":
		return objstore.NewDriveStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func readInput(file string) (string, error) {
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		return string(data), err
	}
	data, err := io.ReadAll(os.Stdin)
	return string(data), err
}

func baseName(path string) string {
	return filepath.Base(path)
}

func usage() {
	fmt.Println(`usage: orderintake <command> [flags]

commands:
  ingest:text          --operator --file    extract orders from a text message
  ingest:image         --operator --file    extract orders from a photo
  ingest:pdf           --operator --file    extract orders from a scanned pdf
  build:summary        --date               rebuild the aggregation summary
  build:picking        --date               rebuild the picking list
  build:purchase-list  --date               rebuild the purchase list
  build:purchase-docs  --date               render per-supplier purchase documents
  build:backlog        --date               rebuild the backlog sheets
  migrate:backlog      --date               import the previous day's backlogs`)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
