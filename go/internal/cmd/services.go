package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/draftroom/go/internal/config"
	"github.com/mcdev12/draftroom/go/internal/draft/api"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/machine"
	"github.com/mcdev12/draftroom/go/internal/draft/manager"
	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/mcdev12/draftroom/go/internal/leagues"
	"github.com/mcdev12/draftroom/go/internal/metrics"
	"github.com/mcdev12/draftroom/go/internal/teams"
)

type Services struct {
	Registry   *prometheus.Registry
	Scheduler  *orchestrator.Scheduler
	Dispatcher *events.Dispatcher
	Hub        *gateway.Hub
	Manager    *manager.Manager
	Leagues    *leagues.App
	Admin      *api.Service

	db   *Databases
	nats *nats.Conn
}

// setupServices wires the dependency chain:
// storage → leagues/teams → event sinks → hub → manager → admin service.
func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	s := &Services{Registry: prometheus.NewRegistry()}
	s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(s.Registry)
	clock := clockwork.NewRealClock()

	var (
		leagueRepo leagues.LeaguesRepository = leagues.NewMemoryRepository()
		catalog    manager.TeamCatalog
		draftStore manager.DraftStore
		sinks      []events.Handler
	)

	source, err := catalogSource(cfg.Draft)
	if err != nil {
		return nil, err
	}
	catalog = source

	if cfg.Storage.Driver == "postgres" {
		db, err := setupDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.db = db

		teamsApp := teams.NewApp(teams.NewRepository(db.Pool))
		if err := ensureTeams(ctx, teamsApp, source); err != nil {
			s.Close()
			return nil, err
		}
		catalog = teamsApp
		leagueRepo = leagues.NewRepository(db.Pool)

		drafts := store.NewStore(db.SQL)
		draftStore = drafts
		sinks = append(sinks, drafts)
	}

	if cfg.NATS.Enabled {
		nc, js, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.nats = nc
		publisher := events.NewNATSPublisher(js, events.NATSConfig{
			URL:           cfg.NATS.URL,
			StreamName:    cfg.NATS.StreamName,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			MaxAge:        cfg.NATS.MaxAge,
		})
		if err := publisher.EnsureStream(ctx); err != nil {
			s.Close()
			return nil, err
		}
		sinks = append(sinks, publisher)
	}

	s.Dispatcher = events.NewDispatcher(events.Config{
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	}, collector, sinks...)

	s.Hub = gateway.NewHub(hubConfig(cfg), collector)
	s.Leagues = leagues.NewApp(leagueRepo, clock)
	s.Scheduler = orchestrator.NewScheduler(clock)

	strategy, err := orchestrator.StrategyByName(cfg.Draft.AutoPick, cfg.Draft.RandomSeed)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Manager = manager.New(manager.Deps{
		Clock:     clock,
		Scheduler: s.Scheduler,
		Strategy:  strategy,
		Roster:    s.Leagues,
		Teams:     catalog,
		Store:     draftStore,
		Sessions:  s.Hub,
		Recorder:  s.Dispatcher,
		Metrics:   collector,
	}, manager.Config{
		Machine: machine.Config{
			MinParticipants:   cfg.Draft.MinParticipants,
			RobotPickDelay:    cfg.Draft.RobotPickDelay,
			TimerTickInterval: cfg.Draft.TimerTickInterval,
			InboxSize:         cfg.Draft.InboxSize,
		},
		SweepInterval: cfg.Draft.SweepInterval,
		CallTimeout:   cfg.Draft.CallTimeout,
	})
	s.Admin = api.NewService(s.Manager, s.Leagues)

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Bool("nats", cfg.NATS.Enabled).
		Str("auto_pick", cfg.Draft.AutoPick).
		Int("event_sinks", len(sinks)).
		Msg("services configured")
	return s, nil
}

// Start launches the background workers.
func (s *Services) Start(ctx context.Context) error {
	if err := s.Dispatcher.Start(ctx); err != nil {
		return err
	}
	return s.Manager.StartSweeper(ctx)
}

// Close stops everything in reverse dependency order. Safe on partially built
// services.
func (s *Services) Close() {
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.Manager != nil {
		s.Manager.Close()
	}
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	if s.Dispatcher != nil {
		if err := s.Dispatcher.Stop(); err != nil {
			log.Debug().Err(err).Msg("dispatcher stop")
		}
	}
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
	s.db.Close()
}

// HealthChecks probes the dependencies that were configured.
func (s *Services) HealthChecks() []api.HealthCheck {
	checks := []api.HealthCheck{{
		Name: "event_dispatcher",
		Check: func(context.Context) error {
			if !s.Dispatcher.Running() {
				return errors.New("not running")
			}
			if pending, limit := s.Dispatcher.Pending(), 1000; pending > limit {
				return fmt.Errorf("%d events pending", pending)
			}
			return nil
		},
	}}
	if s.db != nil {
		checks = append(checks, api.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			if err := s.db.SQL.PingContext(ctx); err != nil {
				return err
			}
			return s.db.Pool.Ping(ctx)
		}})
	}
	if s.nats != nil {
		checks = append(checks, api.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !s.nats.IsConnected() {
				return fmt.Errorf("connection %s", s.nats.Status())
			}
			return nil
		}})
	}
	return checks
}

func catalogSource(cfg config.DraftConfig) (*teams.Catalog, error) {
	if cfg.CatalogFile != "" {
		return teams.LoadCatalogFile(cfg.CatalogFile)
	}
	return teams.BuiltinCatalog(cfg.Sport)
}

// ensureTeams seeds the teams table from the configured catalog when it is empty.
func ensureTeams(ctx context.Context, app *teams.App, source teams.Source) error {
	if existing, err := app.Teams(ctx); err == nil && len(existing) > 0 {
		return nil
	}
	res, err := app.Seed(ctx, source)
	if err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("failed to seed %d teams: %w", len(res.Errors), res.Errors[0])
	}
	return nil
}

func hubConfig(cfg config.Config) gateway.ConnectionConfig {
	hc := gateway.DefaultConnectionConfig()
	g := cfg.Gateway
	hc.WriteTimeout = g.WriteTimeout
	hc.ReadTimeout = g.ReadTimeout
	hc.PingInterval = g.PingInterval
	hc.HeartbeatInterval = g.HeartbeatInterval
	hc.MaxMissedPongs = g.MaxMissedPongs
	hc.SendBufferSize = g.SendBufferSize
	hc.PickRate = rate.Limit(g.PickRate)
	hc.PickBurst = g.PickBurst
	hc.CheckOrigin = originChecker(cfg.Server.AllowedOrigins)
	return hc
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
