// Command admin provisions admin accounts and demo data directly against the
// configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"causebridge/internal/app"
	"causebridge/internal/core/config"
	"causebridge/internal/core/logger"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("admin", pflag.ExitOnError)
	cfgPath := fs.String("config", os.Getenv("CONFIG_PATH"), "config file")
	name := fs.String("name", "", "admin account name")
	password := fs.String("password", "", "admin password (or ADMIN_PASSWORD)")
	reset := fs.Bool("reset", false, "reset the password of an existing admin")
	seed := fs.Bool("seed", false, "create a small verified demo dataset")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: admin --name NAME [--password PW] [--reset] [--seed]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if err := run(*cfgPath, *name, *password, *reset, *seed, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
}

func run(cfgPath, name, password string, reset, seed bool, timeout time.Duration) error {
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if name == "" && !seed {
		return errors.New("--name is required")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if name != "" {
		if password == "" {
			return errors.New("a password is required")
		}
		created, err := a.Services.Identity.EnsureAdmin(ctx, name, password, reset)
		if err != nil {
			return err
		}
		switch {
		case created:
			log.Info("admin created", zap.String("name", name))
		case reset:
			log.Info("admin password reset", zap.String("name", name))
		default:
			log.Info("admin already exists", zap.String("name", name))
		}
	}

	if seed {
		if name == "" || password == "" {
			return errors.New("--seed needs --name and a password to act as admin")
		}
		n, err := seedDemo(ctx, a, name, password)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("demo data seeded", zap.Int("accounts", n))
	}
	return nil
}
