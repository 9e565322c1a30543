package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/DiegoVF1391/music-tracker/internal/app/references"
	"github.com/DiegoVF1391/music-tracker/internal/app/songs"
	"github.com/DiegoVF1391/music-tracker/internal/config"
	"github.com/DiegoVF1391/music-tracker/internal/dashboard"
	"github.com/DiegoVF1391/music-tracker/internal/http/middleware"
	"github.com/DiegoVF1391/music-tracker/internal/httpapi"
	"github.com/DiegoVF1391/music-tracker/internal/store"
	"github.com/DiegoVF1391/music-tracker/internal/web"
)

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	if cfg.Store.SeedReferenceData {
		if err := seedReferenceData(ctx, backend); err != nil {
			return err
		}
	}

	handler, err := newHTTPHandler(cfg, backend)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("store", cfg.Store.Driver).Msg("Music tracker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	log.Info().Msg("Server exited")
	return nil
}

func newHTTPHandler(cfg *config.Config, backend store.Backend) (http.Handler, error) {
	songSvc := songs.New(backend)
	referenceSvc := references.New(backend)
	dashboardSvc := dashboard.New(backend)

	pages, err := web.New(songSvc, referenceSvc, dashboardSvc)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	httpapi.New(songSvc, referenceSvc, dashboardSvc).Register(router)
	pages.Register(router)

	// Wrapped outside the router so preflight requests that match no route still get CORS headers.
	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler, nil
}
