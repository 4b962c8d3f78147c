package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/api"
	"github.com/insightdelivered/transcript-grades/internal/extractor"
	"github.com/insightdelivered/transcript-grades/internal/store"
)

var (
	servePort      int
	serveWithStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		engine, err := newEngine(cfg.Parser)
		if err != nil {
			return err
		}
		chain, err := extractor.New(cfg.Extractor)
		if err != nil {
			return err
		}

		h := &api.Handler{
			Extractor:  chain,
			Engine:     engine,
			Calculator: newCalculator(cfg.Grading),
		}
		if serveWithStore {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			h.Store = st
		}

		app := api.NewApp(h, cfg.Server)

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
				zap.L().Error("server shutdown error", zap.Error(err))
			}
		}()

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		zap.L().Info("starting server",
			zap.String("addr", addr),
			zap.Strings("extractors", chain.Providers()),
			zap.Bool("store", serveWithStore),
		)
		if err := app.Listen(addr); err != nil {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveWithStore, "store", false, "persist extractions that carry a user_id")
	rootCmd.AddCommand(serveCmd)
}

// openStore connects to the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
