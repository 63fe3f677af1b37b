// Package handler holds the HTTP modules. Each module mounts its routes on
// the group the router hands it and defers every rule to the services.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"causebridge/internal/service"
	mdw "causebridge/internal/transport/http/middleware"
)

// Cookie describes the session cookie. An empty Name disables it.
type Cookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (ck Cookie) set(c *gin.Context, value string, expires time.Time) {
	if ck.Name == "" || value == "" {
		return
	}
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = int(ck.MaxAge.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, value, maxAge, "/", "", ck.Secure, true)
}

func (ck Cookie) clear(c *gin.Context) {
	if ck.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, "", -1, "/", "", ck.Secure, true)
}

// Env is what every module needs.
type Env struct {
	Svc    *service.Services
	Log    *zap.Logger
	Cookie Cookie
}

func (e Env) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// Modules returns the API modules in mount order.
func Modules(e Env) []any {
	return []any{
		&Auth{Env: e},
		&Causes{Env: e},
		&Users{Env: e},
		&DashboardModule{Env: e},
		&Admin{Env: e},
	}
}

// sessionErr is why a presented credential failed to resolve, if it did.
func sessionErr(c *gin.Context) error { return mdw.SessionErr(c) }
