// Package app wires configuration into a running set of services. Both
// binaries build through it so they see the same store and sessions.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"causebridge/internal/core/auth"
	"causebridge/internal/core/cache"
	"causebridge/internal/core/config"
	"causebridge/internal/core/database"
	"causebridge/internal/core/session"
	"causebridge/internal/repo"
	"causebridge/internal/service"
	"causebridge/internal/transport/http/handler"
)

type App struct {
	Config   *config.Config
	Store    repo.Store
	Services *service.Services
	Checks   map[string]handler.Check

	closers []func() error
}

// Build opens storage, redis when configured, and the session manager.
func Build(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Checks: map[string]handler.Check{}}

	store, err := a.openStore(ctx, l)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store
	a.Checks["store"] = store.Ping

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.closers = append(a.closers, rdb.Close)
		a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var sstore session.Store = session.NewMemoryStore()
	if cfg.Session.Store == "redis" {
		if rdb == nil {
			a.Close()
			return nil, errors.New("session.store=redis needs redis.addr")
		}
		sstore = session.NewRedisStore(rdb, cfg.App.Name+":")
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		if cfg.App.Production() {
			a.Close()
			return nil, errors.New("jwt.secret is required in production")
		}
		secret = randomSecret()
		l.Warn("jwt.secret empty, using a random one; tokens will not survive a restart")
	}
	jwter := &auth.JWTer{Secret: []byte(secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}
	mgr := session.NewManager(jwter, sstore, session.Options{
		Mode:       session.Mode(cfg.Session.Mode),
		TTL:        cfg.Session.TTL,
		DenyBearer: cfg.Session.DenyBearer,
	})

	var c *cache.Cache
	if cfg.Cache.Enabled && rdb != nil {
		c = cache.NewFromClient(rdb)
	}

	a.Services = service.New(service.Deps{
		Store:                store,
		Sessions:             mgr,
		Cache:                c,
		Log:                  l,
		Timeout:              cfg.Storage.Timeout,
		CacheTTL:             cfg.Cache.TTL,
		MinPasswordLen:       cfg.Auth.MinPasswordLen,
		RequireVerifiedLogin: cfg.Auth.RequireVerifiedLogin,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, l *zap.Logger) (repo.Store, error) {
	if a.Config.Storage.Driver == "memory" {
		l.Warn("using in-memory storage; data is lost on exit")
		return repo.NewMemoryStore(), nil
	}
	db, err := database.NewGorm(database.FromConfig(a.Config.DB), l)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	l.Info("database connected", zap.String("driver", a.Config.DB.Driver))

	gs := repo.NewGormStore(db)
	if a.Config.DB.AutoMigrate {
		if err := gs.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}
	return gs, nil
}

// EnsureBootstrapAdmin creates the configured admin if it is missing.
func (a *App) EnsureBootstrapAdmin(ctx context.Context, l *zap.Logger) error {
	b := a.Config.Bootstrap
	if b.AdminName == "" || b.AdminPassword == "" {
		return nil
	}
	created, err := a.Services.Identity.EnsureAdmin(ctx, b.AdminName, b.AdminPassword, false)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		l.Info("bootstrap admin created", zap.String("name", b.AdminName))
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
