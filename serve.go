package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/budget-worksheet-converter/internal/api"
	"github.com/insightdelivered/budget-worksheet-converter/internal/extractor"
	"github.com/insightdelivered/budget-worksheet-converter/internal/store"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP conversion API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; a missing file only means nothing to load.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return runServe(cmd.Context(), root, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, addr string) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	h := &api.Handler{
		Layout:    cfg.ParserLayout(),
		Extractor: extractor.New(cfg.Extract.Pdftotext, cfg.Extract.Fixed, logger),
		Logger:    logger,
	}
	if cfg.Database.URL != "" {
		sink, err := store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		h.Sink = sink
	}
	app := api.NewApp(h, cfg.Server.BodyLimitMB)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info().Str("addr", addr).Bool("database", h.Sink != nil).Msg("listening")
	return app.Listen(addr)
}
