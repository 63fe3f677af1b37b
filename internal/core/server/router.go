package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Name string
	Mode string // gin mode: debug | release | test
	// AllowOrigins enables credentialed CORS for these origins. Empty allows
	// any origin without credentials.
	AllowOrigins []string
	// Recovery replaces the default zap recovery handler.
	Recovery gin.HandlerFunc
}

func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()
	if o.Recovery != nil {
		r.Use(o.Recovery)
	} else {
		r.Use(ginzap.RecoveryWithZap(l, true))
	}

	cc := cors.DefaultConfig()
	if len(o.AllowOrigins) > 0 {
		cc.AllowOrigins = o.AllowOrigins
		cc.AllowCredentials = true
	} else {
		cc.AllowAllOrigins = true
	}
	cc.AddAllowHeaders("Authorization", "X-Request-ID")
	cc.AddExposeHeaders("X-Request-ID")
	r.Use(cors.New(cc))
	return r
}

// Run serves until ctx is done, then drains in-flight requests for up to grace.
func Run(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("http shutting down", zap.Duration("grace", grace))
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20,
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
