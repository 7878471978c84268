// Package server exposes the messaging-platform webhook. Each event is
// verified, resolved to an operator name and handed to the pipeline; the
// endpoint always answers 200 so the platform does not retry already-archived
// messages.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"orderintake/internal"
	"orderintake/internal/config"
	"orderintake/internal/gateway"
	"orderintake/internal/pipeline"
	"orderintake/internal/rollover"
)

type Server struct {
	cfg      config.Config
	pipeline *pipeline.Service
	gw       *gateway.Client
}

func New(cfg config.Config, svc *pipeline.Service, gw *gateway.Client) *Server {
	return &Server{cfg: cfg, pipeline: svc, gw: gw}
}

// Run serves the webhook until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/webhook", s.handleWebhook)

	srv := &http.Server{Addr: s.cfg.WebhookAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("webhook listening on %s\n", s.cfg.WebhookAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "bad body")
		return
	}
	if !gateway.VerifySignature(s.cfg.ChannelSecret, body, c.GetHeader(gateway.SignatureHeader)) {
		c.String(http.StatusForbidden, "bad signature")
		return
	}

	events, err := gateway.ParseEvents(body)
	if err != nil {
		fmt.Printf("webhook: %v\n", err)
		c.String(http.StatusOK, "OK")
		return
	}

	for _, ev := range events {
		if err := s.handleEvent(c.Request.Context(), ev); err != nil {
			// Per-event failures are logged, never surfaced to the platform:
			// a non-200 would only trigger redelivery of the whole batch.
			fmt.Printf("webhook event %s: %v\n", ev.MessageID, err)
		}
	}
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleEvent(ctx context.Context, ev gateway.Event) error {
	operator, err := s.gw.GetDisplayName(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("resolve operator: %w", err)
	}

	switch ev.Kind {
	case internal.KindText:
		handled, err := s.pipeline.RunCommand(ctx, ev.Text)
		if errors.Is(err, rollover.ErrNoPreviousDay) {
			fmt.Printf("webhook: %v\n", err)
			return nil
		}
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
		n, err := s.pipeline.IngestText(ctx, operator, ev.Text)
		if err != nil {
			return err
		}
		fmt.Printf("text message from %s: %d record(s)\n", operator, n)
		return nil

	case internal.KindImage:
		blob, err := s.gw.GetContent(ctx, ev.MessageID)
		if err != nil {
			return fmt.Errorf("download image: %w", err)
		}
		n, err := s.pipeline.IngestImage(ctx, operator, blob)
		if err != nil {
			return err
		}
		fmt.Printf("image message from %s: %d record(s)\n", operator, n)
		return nil

	case internal.KindFile:
		blob, err := s.gw.GetContent(ctx, ev.MessageID)
		if err != nil {
			return fmt.Errorf("download file: %w", err)
		}
		if s.pipeline.IsConfigFile(ev.FileName) {
			if err := s.pipeline.StoreConfigFile(ctx, ev.FileName, blob); err != nil {
				return err
			}
			fmt.Printf("configuration file %s updated by %s\n", ev.FileName, operator)
			return nil
		}
		if !strings.EqualFold(filepath.Ext(ev.FileName), ".pdf") {
			fmt.Printf("file %s from %s ignored: unsupported type\n", ev.FileName, operator)
			return nil
		}
		n, err := s.pipeline.IngestDocument(ctx, operator, ev.FileName, blob)
		if err != nil {
			return err
		}
		fmt.Printf("document %s from %s: %d record(s)\n", ev.FileName, operator, n)
		return nil
	}
	return nil
}
