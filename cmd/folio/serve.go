package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/config"
	foliohttp "github.com/sagarc03/folio/http"
	"github.com/sagarc03/folio/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the content API server.

With storage.type=filesystem the server also answers /objects, acting as
the object store its own signed upload URLs point at.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port (env: FOLIO_SERVER_PORT)")
	serveCmd.Flags().String("api-prefix", "/api", "path the content API is mounted under (env: FOLIO_API_PREFIX)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	token, err := keybackend.LoadAdminToken(cfg.Auth.TokenConfig)
	if err != nil {
		return fmt.Errorf("load admin token: %w", err)
	}
	if !token.Configured() {
		slog.Warn("admin token is not set, admin endpoints will answer 500")
	}

	handlerConfig := foliohttp.HandlerConfig{
		APIPrefix:  cfg.API.Prefix,
		CORS:       cfg.CORS,
		AdminToken: token,
	}

	if cfg.Content.RevalidateURL != "" {
		handlerConfig.Revalidator = foliohttp.NewWebhookRevalidator(cfg.Content.RevalidateURL, token.Value(), nil)
	}

	if a.objects != nil {
		secrets, err := keybackend.NewSecretStore(cfg.Auth.Keys)
		if err != nil {
			return fmt.Errorf("load access keys: %w", err)
		}
		handlerConfig.Objects = foliohttp.NewObjectHandler(a.objects, folio.NewSignatureVerifier(secrets))
	}

	handler := foliohttp.NewHandler(&handlerConfig, a.service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "prefix", cfg.API.Prefix, "objects", a.objects != nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
