package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/draftroom/go/internal/config"
	"github.com/mcdev12/draftroom/go/internal/draft/api"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the draft room server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	// Workers are stopped by services.Close so queued events drain on shutdown.
	if err := services.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	server := setupServer(cfg, services)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("draft room server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown.
	services.Hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown did not complete")
	}
	return nil
}

func setupServer(cfg config.Config, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{api.ErrorCodeHeader},
	})
	r.Use(c.Handler)

	// Admin service
	path, handler := api.NewDraftAdminHandler(services.Admin)
	r.Mount(path, handler)

	// Read model, rosters, websocket
	gateway.NewStateHandler(services.Manager).RegisterStateRoutes(r)
	api.NewRosterHandler(services.Leagues).RegisterRoutes(r)
	gateway.NewWebSocketHandler(services.Hub, services.Manager).RegisterRoutes(r)

	// Health check and metrics
	api.RegisterOpsRoutes(r, services.Registry, services.HealthChecks()...)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
