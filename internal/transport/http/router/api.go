package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"causebridge/internal/core/config"
	"causebridge/internal/core/server"
	"causebridge/internal/service"
	"causebridge/internal/transport/http/handler"
	mdw "causebridge/internal/transport/http/middleware"
)

type Deps struct {
	Log      *zap.Logger
	Services *service.Services
	Limits   config.Limits
	Session  config.Session
	Mode     string
	Origins  []string
	Checks   map[string]handler.Check
	// Modules overrides the default handler set.
	Modules []any
}

// ipIdle is how long a quiet client keeps its rate bucket.
const ipIdle = 10 * time.Minute

// NewAPIEngine assembles the middleware chain and mounts every module under
// /api.
func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	r := server.NewRouter(l, server.Options{Mode: d.Mode, AllowOrigins: d.Origins, Recovery: mdw.Recovery(l)})

	chain := []gin.HandlerFunc{mdw.RequestID(), mdw.Metrics(), mdw.AccessLog(l)}
	if d.Limits.GlobalRPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(d.Limits.GlobalRPS), max(d.Limits.GlobalBurst, 1)))
	}
	if d.Limits.RPS > 0 {
		chain = append(chain, mdw.RateLimitPerIP(rate.Limit(d.Limits.RPS), max(d.Limits.Burst, 1), ipIdle))
	}
	if d.Limits.Concurrency > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(d.Limits.Concurrency))
	}
	if d.Limits.MaxBodyBytes > 0 {
		chain = append(chain, mdw.MaxBodyBytes(d.Limits.MaxBodyBytes))
	}
	chain = append(chain, mdw.Timeout(d.Limits.RequestTimeout))
	r.Use(chain...)

	r.GET("/health", handler.Health(l, d.Checks))
	r.GET("/metrics", handler.Metrics())

	cookie := ""
	if d.Session.Mode != config.SessionBearer {
		cookie = d.Session.CookieName
	}
	api := r.Group("/api")
	api.Use(mdw.Session(d.Services.Identity, cookie))

	mods := d.Modules
	if mods == nil {
		mods = handler.Modules(handler.Env{
			Svc: d.Services,
			Log: l,
			Cookie: handler.Cookie{
				Name:   cookie,
				Secure: d.Session.CookieSecure,
				MaxAge: d.Session.TTL,
			},
		})
	}
	reg := &Registry{}
	reg.Register(mods...)
	reg.MountAPI(api)
	mountAdmin(api, reg)
	return r
}
