package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/httpserver"
	"github.com/peachtree-labs/happyhour/internal/identity"
	"github.com/peachtree-labs/happyhour/internal/persist"
	"github.com/peachtree-labs/happyhour/internal/session"
	"github.com/peachtree-labs/happyhour/internal/store"
	"github.com/peachtree-labs/happyhour/pkg/anthropic"
	"github.com/peachtree-labs/happyhour/pkg/places"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the directory API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		extractor := extract.NewService(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
			time.Duration(cfg.Extract.TimeoutSecs)*time.Second,
		)

		var placesClient places.Client
		if cfg.Places.Key != "" {
			opts := []places.Option{places.WithRateLimit(cfg.Places.RateLimit)}
			if cfg.Places.BaseURL != "" {
				opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
			}
			placesClient = places.NewClient(cfg.Places.Key, opts...)
		} else {
			zap.L().Warn("places key not configured, venues will save without enrichment")
		}

		var venueSource store.Source = st
		if cfg.Venues.CSVExportURL != "" {
			venueSource = &store.FallbackSource{
				Primary:   st,
				Secondary: store.NewCSVSource(cfg.Venues.CSVExportURL),
			}
		}

		saver := persist.NewSaver(st, placesClient, cfg.Places.Region)
		controller := session.NewController(extractor, venueSource, saver)
		provider := identity.NewProvider(cfg.Identity.BaseURL, cfg.Identity.APIKey)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return httpserver.New(controller, venueSource, provider).Run(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
