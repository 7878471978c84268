package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderintake/internal/config"
	"orderintake/internal/extract"
	"orderintake/internal/gateway"
	"orderintake/internal/objstore"
	"orderintake/internal/pipeline"
	"orderintake/internal/server"
	"orderintake/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("CHANNEL_SECRET", cfg.ChannelSecret))
	must(cfg.Require("CHANNEL_ACCESS_TOKEN", cfg.ChannelAccessToken))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	store, err := makeStore(cfg)
	must(err)

	svc, err := pipeline.NewService(cfg, store, extract.NewClient(cfg), db)
	must(err)

	srv := server.New(cfg, svc, gateway.NewClient(cfg))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(srv.Run(ctx))
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

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
