package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gtechitgaminghub-byte/gamezone/internal/config"
	"github.com/gtechitgaminghub-byte/gamezone/internal/httpapi"
	"github.com/gtechitgaminghub-byte/gamezone/internal/models"
	"github.com/gtechitgaminghub-byte/gamezone/internal/store"
	"github.com/gtechitgaminghub-byte/gamezone/internal/store/postgres"
	"github.com/gtechitgaminghub-byte/gamezone/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("gamezone")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool)

	if cfg.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := seedDemoData(ctx, st, cfg.SeedAdminPassword); err != nil {
			log.Printf("seed error: %v", err)
		}
		cancel()
	}

	handler := httpapi.NewHandler(st, httpapi.Options{
		CookieSecret: cfg.CookieSecret,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(handler.Routes())), "gamezone")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("gamezone listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	go func() {
		if cfg.SessionSweep <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.SessionSweep)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			count, err := st.DeleteExpiredAuthSessions(ctx)
			cancel()
			if err != nil {
				log.Printf("session sweep error: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("session sweep removed %d expired sessions", count)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// seedDemoData bootstraps a first admin account and a few stations so a
// fresh install has something to log into.
func seedDemoData(ctx context.Context, st store.Store, adminPassword string) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	log.Println("seeding admin user and demo PCs")

	hashed, err := httpapi.HashPassword(adminPassword)
	if err != nil {
		return err
	}
	if _, err := st.CreateUser(ctx, store.CreateUserInput{
		Username:       "admin",
		Password:       hashed,
		Role:           models.RoleSuperAdmin,
		BalanceMinutes: 9999,
	}); err != nil {
		return err
	}

	demoPcs := []store.CreatePcInput{
		{Name: "Gaming-01", IPAddress: "192.168.1.101", Status: models.PcStatusOnline},
		{Name: "Gaming-02", IPAddress: "192.168.1.102", Status: models.PcStatusOffline},
		{Name: "Gaming-03", IPAddress: "192.168.1.103", Status: models.PcStatusOnline},
	}
	for _, input := range demoPcs {
		if _, err := st.CreatePc(ctx, input); err != nil {
			return err
		}
	}
	return nil
}
