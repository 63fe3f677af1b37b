package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int    `mapstructure:"idle_timeout_sec"`
	// AllowOrigins turns on credentialed CORS for the listed origins.
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	HTTP HTTP   `mapstructure:"http"`
}

func (a App) Production() bool { return a.Env == "prod" || a.Env == "production" }

type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	// File enables lumberjack rotation when set.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a redis server is configured at all.
func (r Redis) Enabled() bool { return r.Addr != "" }

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

const (
	SessionBearer = "bearer"
	SessionCookie = "cookie"
	SessionBoth   = "both"
)

type Session struct {
	Mode         string        `mapstructure:"mode"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	TTL          time.Duration `mapstructure:"ttl"`
	Store        string        `mapstructure:"store"` // memory | redis
	// DenyBearer records logged-out token ids until they expire.
	DenyBearer bool `mapstructure:"deny_bearer"`
}

type Cache struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type Auth struct {
	RequireVerifiedLogin bool `mapstructure:"require_verified_login"`
	MinPasswordLen       int  `mapstructure:"min_password_len"`
}

type Storage struct {
	Driver  string        `mapstructure:"driver"` // gorm | memory
	Timeout time.Duration `mapstructure:"timeout"`
}

type Limits struct {
	// GlobalRPS caps the whole server ahead of the per client limiter.
	GlobalRPS      float64       `mapstructure:"global_rps"`
	GlobalBurst    int           `mapstructure:"global_burst"`
	RPS            float64       `mapstructure:"rps"`
	Burst          int           `mapstructure:"burst"`
	Concurrency    int64         `mapstructure:"concurrency"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Bootstrap struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminPassword string `mapstructure:"admin_password"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Log       Log       `mapstructure:"log"`
	JWT       JWT       `mapstructure:"jwt"`
	DB        DB        `mapstructure:"db"`
	Redis     Redis     `mapstructure:"redis"`
	Session   Session   `mapstructure:"session"`
	Cache     Cache     `mapstructure:"cache"`
	Auth      Auth      `mapstructure:"auth"`
	Storage   Storage   `mapstructure:"storage"`
	Limits    Limits    `mapstructure:"limits"`
	Bootstrap Bootstrap `mapstructure:"bootstrap"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "causebridge")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout_sec", 10)
	v.SetDefault("app.http.write_timeout_sec", 15)
	v.SetDefault("app.http.idle_timeout_sec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "causebridge")
	v.SetDefault("jwt.access_token_ttl_min", 120)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.mode", SessionBoth)
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.deny_bearer", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "5s")

	v.SetDefault("auth.require_verified_login", true)
	v.SetDefault("auth.min_password_len", 8)

	v.SetDefault("storage.driver", "gorm")
	v.SetDefault("storage.timeout", "3s")

	v.SetDefault("limits.global_rps", 0)
	v.SetDefault("limits.global_burst", 0)
	v.SetDefault("limits.rps", 20)
	v.SetDefault("limits.burst", 40)
	v.SetDefault("limits.concurrency", 256)
	v.SetDefault("limits.max_body_bytes", 1<<20)
	v.SetDefault("limits.request_timeout", "10s")

	v.SetDefault("bootstrap.admin_name", "")
	v.SetDefault("bootstrap.admin_password", "")
}

// Load reads path (or CONFIG_PATH, or ./configs/config.local.yaml) with APP_
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Session.Mode {
	case SessionBearer, SessionCookie, SessionBoth:
	default:
		return fmt.Errorf("config: session.mode %q not one of bearer|cookie|both", c.Session.Mode)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: session.store %q not one of memory|redis", c.Session.Store)
	}
	if c.Session.Store == "redis" && !c.Redis.Enabled() {
		return errors.New("config: session.store=redis needs redis.addr")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	if c.Storage.Driver != "gorm" && c.Storage.Driver != "memory" {
		return fmt.Errorf("config: storage.driver %q not one of gorm|memory", c.Storage.Driver)
	}
	if c.App.Production() && len(c.JWT.Secret) < 32 {
		return errors.New("config: jwt.secret must be at least 32 bytes in production")
	}
	return nil
}
