package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health runs every check under a short deadline; any failure answers 503.
// Failure details go to the log only, the body says "unavailable".
func Health(l *zap.Logger, checks map[string]Check) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	slices.Sort(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := gin.H{}
		for _, n := range names {
			if err := checks[n](ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[n] = "unavailable"
				l.Warn("health check failed", zap.String("check", n), zap.Error(err))
				continue
			}
			out[n] = "ok"
		}
		c.JSON(status, gin.H{"ok": status == http.StatusOK, "checks": out})
	}
}

func Metrics() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
