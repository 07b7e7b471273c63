// Command server runs the raffle API. With RIFA_DATABASE_URL set it persists
// to PostgreSQL; without it, it runs fully in memory, which is enough for
// local development and demos.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	cycleHandler "rifa/internal/cycle/handler"
	cycleService "rifa/internal/cycle/service"
	drawHandler "rifa/internal/draw/handler"
	drawService "rifa/internal/draw/service"
	drawStore "rifa/internal/draw/store"
	extrasHandler "rifa/internal/extras/handler"
	extrasService "rifa/internal/extras/service"
	extrasStore "rifa/internal/extras/store"
	"rifa/internal/jwt"
	"rifa/internal/notify"
	"rifa/internal/platform/config"
	"rifa/internal/platform/database"
	"rifa/internal/platform/httpserver"
	"rifa/internal/platform/logger"
	"rifa/internal/platform/metrics"
	"rifa/internal/platform/redis"
	"rifa/internal/pool"
	"rifa/internal/proofs"
	"rifa/internal/readmodel"
	registryHandler "rifa/internal/registry/handler"
	registryService "rifa/internal/registry/service"
	registryStore "rifa/internal/registry/store"
	transport "rifa/internal/transport/http"
	"rifa/pkg/platform/tx"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// The concrete stores serve several services; these composites name the full
// surface each backend must provide.
type participantStore interface {
	registryService.Store
	drawService.ParticipantLister
	cycleService.ParticipantWiper
}

type requestStore interface {
	extrasService.RequestStore
	cycleService.RequestWiper
}

type outcomeStore interface {
	drawService.OutcomeStore
	cycleService.OutcomeWiper
}

type stores struct {
	participants participantStore
	requests     requestStore
	outcomes     outcomeStore
	runner       tx.Runner
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db  *sql.DB
		st  stores
		err error
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		st = stores{
			participants: registryStore.NewPostgres(db),
			requests:     extrasStore.NewPostgres(db),
			outcomes:     drawStore.NewPostgres(db),
			runner:       tx.NewSQLRunner(db),
		}
		log.Info("using postgres store")
	} else {
		st = stores{
			participants: registryStore.NewInMemory(),
			requests:     extrasStore.NewInMemory(),
			outcomes:     drawStore.NewInMemory(),
			runner:       tx.NewMemoryRunner(),
		}
		log.Warn("no database configured, using in-memory store")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	var (
		cache     *readmodel.Cache
		publisher *notify.Publisher
	)
	if redisClient != nil {
		cache = readmodel.New(redisClient, log)
		publisher = notify.New(redisClient, log)
	}

	proofStore, err := proofs.NewStore(cfg.ProofDir, log)
	if err != nil {
		return err
	}

	allocator := pool.New(cfg.PoolSize)

	registrySvc := newRegistryService(st, cfg, log, m, cache, publisher)
	extrasSvc := newExtrasService(st, cfg, allocator, log, m, cache, publisher)
	drawSvc := newDrawService(st, log, m, publisher)
	cycleSvc := newCycleService(st, log, m, proofStore, cache, publisher)

	jwtManager := jwt.NewManager(cfg.JWTSigningKey)

	router := transport.NewRouter(transport.Handlers{
		Registry: registryHandler.New(registrySvc, log),
		Extras:   extrasHandler.New(extrasSvc, proofStore, log),
		Draw:     drawHandler.New(drawSvc, log),
		Cycle:    cycleHandler.New(cycleSvc, log),
	}, transport.Deps{
		Logger:    log,
		Metrics:   m,
		Validator: jwtManager,
		DB:        db,
		Redis:     redisClient,
	})

	server := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "pool_size", cfg.PoolSize)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRegistryService(st stores, cfg config.Config, log *slog.Logger, m *metrics.Metrics, cache *readmodel.Cache, publisher *notify.Publisher) *registryService.Service {
	opts := []registryService.Option{
		registryService.WithLogger(log),
		registryService.WithMetrics(m),
	}
	if cache != nil {
		opts = append(opts, registryService.WithCache(cache))
	}
	if publisher != nil {
		opts = append(opts, registryService.WithNotifier(publisher))
	}
	return registryService.New(st.participants, st.runner, cfg.PoolSize, opts...)
}

func newExtrasService(st stores, cfg config.Config, allocator *pool.Allocator, log *slog.Logger, m *metrics.Metrics, cache *readmodel.Cache, publisher *notify.Publisher) *extrasService.Service {
	opts := []extrasService.Option{
		extrasService.WithLogger(log),
		extrasService.WithMetrics(m),
	}
	if cache != nil {
		opts = append(opts, extrasService.WithCache(cache))
	}
	if publisher != nil {
		opts = append(opts, extrasService.WithNotifier(publisher))
	}
	pricing := extrasService.Pricing{UnitPrice: cfg.UnitPrice, TicketsPerUnit: cfg.TicketsPerUnit}
	return extrasService.New(st.requests, st.participants, allocator, st.runner, pricing, opts...)
}

func newDrawService(st stores, log *slog.Logger, m *metrics.Metrics, publisher *notify.Publisher) *drawService.Service {
	opts := []drawService.Option{
		drawService.WithLogger(log),
		drawService.WithMetrics(m),
	}
	if publisher != nil {
		opts = append(opts, drawService.WithNotifier(publisher))
	}
	return drawService.New(st.outcomes, st.participants, st.runner, opts...)
}

func newCycleService(st stores, log *slog.Logger, m *metrics.Metrics, proofStore *proofs.Store, cache *readmodel.Cache, publisher *notify.Publisher) *cycleService.Service {
	opts := []cycleService.Option{
		cycleService.WithLogger(log),
		cycleService.WithMetrics(m),
		cycleService.WithProofDeleter(proofStore),
	}
	if cache != nil {
		opts = append(opts, cycleService.WithCacheInvalidator(cache))
	}
	if publisher != nil {
		opts = append(opts, cycleService.WithNotifier(publisher))
	}
	return cycleService.New(st.participants, st.requests, st.outcomes, st.runner, opts...)
}
