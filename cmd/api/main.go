package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"causebridge/internal/app"
	"causebridge/internal/core/config"
	"causebridge/internal/core/logger"
	"causebridge/internal/core/server"
	"causebridge/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()
	if err := a.EnsureBootstrapAdmin(ctx, log); err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	mode := gin.DebugMode
	if cfg.App.Production() {
		mode = gin.ReleaseMode
	}
	r := router.NewAPIEngine(router.Deps{
		Log:      log,
		Services: a.Services,
		Limits:   cfg.Limits,
		Session:  cfg.Session,
		Mode:     mode,
		Origins:  cfg.App.HTTP.AllowOrigins,
		Checks:   a.Checks,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host := cfg.App.HTTP.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	base := fmt.Sprintf("http://%s:%d", host, cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("health", base+"/health"),
		zap.String("api", base+"/api"),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("session_mode", cfg.Session.Mode),
	)

	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("api stopped with error", zap.Error(err))
		return
	}
	log.Info("api stopped gracefully")
}
