package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"otterpoint/internal/adapters/backend"
	web "otterpoint/internal/adapters/http"
	"otterpoint/internal/adapters/http/middleware"
	"otterpoint/internal/adapters/http/perf"
	"otterpoint/internal/adapters/storage"
	auditStore "otterpoint/internal/adapters/storage/audit"
	sessionStore "otterpoint/internal/adapters/storage/session"
	"otterpoint/internal/config"
	"otterpoint/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// sweepInterval is how often expired sessions are purged.
const sweepInterval = 10 * time.Minute

// sweeper is implemented by session stores that do not expire entries themselves.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if _, err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Performance instrumentation shared by requests, queries and backend calls
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, 0)

	sealer, err := sessionStore.NewSealer(cfg.SessionKey)
	if err != nil {
		log.Fatalf("failed to create session sealer: %v", err)
	}
	var sessions sessionStore.Store
	switch cfg.SessionStore {
	case config.StoreMemory:
		sessions = sessionStore.NewMemoryStore(sealer)
	case config.StoreRedis:
		client, err := sessionStore.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		sessions = sessionStore.NewRedisStore(client, sealer)
	default:
		sessions = sessionStore.NewSQLiteStore(timedDB, sealer)
	}

	client, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithCollector(collector),
	)
	if err != nil {
		log.Fatalf("invalid backend: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	defer limiter.Stop()

	handler := web.NewMux(web.Deps{
		Backend:     client,
		Sessions:    sessions,
		Audit:       auditStore.NewSQLiteStore(timedDB),
		Collector:   collector,
		Limiter:     limiter,
		CSRFKey:     cfg.CSRFKey,
		Secure:      cfg.Production(),
		SessionTTL:  cfg.SessionTTL,
		SlowRequest: cfg.SlowRequest,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Otter Point %s starting on %s (env=%s, backend=%s, sessions=%s)",
			version, cfg.Addr, cfg.Env, cfg.BackendURL, cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sw, ok := sessions.(sweeper); ok {
		g.Go(func() error {
			sweepSessions(gctx, sw)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

// sweepSessions purges expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, sw sweeper) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sw.Sweep(ctx)
			if err != nil {
				slog.Warn("session_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("session_sweep", "removed", n)
			}
		}
	}
}
