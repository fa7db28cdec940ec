package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/httpapi"
	"familytree/internal/logger"
	"familytree/internal/repository"
	"familytree/internal/service"
	"familytree/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "familytree")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	repo := newPersonsRepository(cfg, log)
	kv := newKV(cfg, log)

	personSvc := service.NewPersonService(repo, log)
	personHandler := httpapi.NewPersonHandler(personSvc, log)
	metrics := httpapi.NewMetrics()

	router := httpapi.NewRouter(log)
	router.RegisterOpsRoutes(metrics.Handler())

	sessions := httpapi.NewSessionManager(kv, time.Duration(cfg.Auth.SessionTTL)*time.Second, cfg.HTTP.Secure, log)

	var gate httpapi.AuthGate = sessions
	if cfg.Auth.Disabled || cfg.Auth.Issuer == "" {
		// Dev fallback: without a provider every request runs as a fixed
		// subject. Never enable in production.
		log.Warn("authentication disabled, running with dev subject",
			zap.String("subject", cfg.Auth.DevSubject))
		gate = &httpapi.DevAuthGate{Subject: cfg.Auth.DevSubject}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		idp, err := service.NewIdentityClient(ctx, cfg.Auth, log)
		cancel()
		if err != nil {
			log.Fatal("identity provider discovery failed", zap.Error(err))
		}
		router.RegisterAuthRoutes(httpapi.NewAuthHandler(idp, sessions, kv, log))
	}
	router.RegisterPeopleRoutes(personHandler, gate)

	protect := csrf.Protect(
		[]byte(cfg.HTTP.CSRFKey),
		csrf.Secure(cfg.HTTP.Secure),
		csrf.Path("/"),
	)
	handler := metrics.Middleware(protect(router))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("familytree listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

// newPersonsRepository selects the store backend. A Postgres connection
// failure falls back to the in-memory store so the service still starts
// (same spirit as running with DB_DRIVER=memory).
func newPersonsRepository(cfg *config.Config, log *zap.Logger) repository.PersonsRepository {
	switch cfg.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Warn("postgres unavailable, falling back to in-memory store", zap.Error(err))
			return repository.NewMemoryPersonsRepository()
		}
		log.Info("using postgres store", zap.String("host", cfg.Database.Host))
		return repository.NewPostgresPersonsRepository(db)
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.SQLite.Path)
		if err != nil {
			log.Fatal("failed to open sqlite database", zap.Error(err))
		}
		if err := database.EnsureSQLiteSchema(db); err != nil {
			log.Fatal("failed to prepare sqlite schema", zap.Error(err))
		}
		log.Info("using sqlite store", zap.String("path", cfg.SQLite.Path))
		return repository.NewSQLitePersonsRepository(db)
	default:
		log.Info("using in-memory store")
		return repository.NewMemoryPersonsRepository()
	}
}

func newKV(cfg *config.Config, log *zap.Logger) store.KV {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, sessions kept in memory")
		return store.NewMemoryKV()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return store.NewRedisKV(client)
}
