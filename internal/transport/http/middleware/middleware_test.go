package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"causebridge/internal/domain"
	mdw "causebridge/internal/transport/http/middleware"
	"causebridge/internal/transport/http/middleware/mocks"
)

func init() { gin.SetMode(gin.TestMode) }

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		if s := mdw.SessionFrom(c); s != nil {
			c.String(http.StatusOK, string(s.Role))
			return
		}
		if err := mdw.SessionErr(c); err != nil {
			c.String(http.StatusOK, "rejected")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func get(r http.Handler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionCarriers(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mocks.NewMockResolver(ctrl)
	r := engine(mdw.Session(res, "sid"))

	res.EXPECT().ResolveSession(gomock.Any(), domain.CarrierBearer, "tok").
		Return(&domain.Session{Role: domain.RoleUser}, nil)
	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer tok") })
	assert.Equal(t, "user", w.Body.String())

	res.EXPECT().ResolveSession(gomock.Any(), domain.CarrierCookie, "c1").
		Return(&domain.Session{Role: domain.RoleCause}, nil)
	w = get(r, func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "sid", Value: "c1"}) })
	assert.Equal(t, "cause", w.Body.String())

	// bearer wins when both are present
	res.EXPECT().ResolveSession(gomock.Any(), domain.CarrierBearer, "tok2").
		Return(&domain.Session{Role: domain.RoleAdmin}, nil)
	w = get(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer tok2")
		req.AddCookie(&http.Cookie{Name: "sid", Value: "ignored"})
	})
	assert.Equal(t, "admin", w.Body.String())
}

func TestSessionAnonymousAndRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mocks.NewMockResolver(ctrl)
	r := engine(mdw.Session(res, "sid"))

	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") })
	assert.Equal(t, "anonymous", w.Body.String())

	res.EXPECT().ResolveSession(gomock.Any(), domain.CarrierBearer, "bad").
		Return(nil, domain.AuthErr("invalid session"))
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") })
	assert.Equal(t, "rejected", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mocks.NewMockResolver(ctrl)
	r := engine(mdw.Session(res, "sid"), mdw.RequireRole(domain.RoleAdmin))

	w := get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"login required"}`, w.Body.String())

	res.EXPECT().ResolveSession(gomock.Any(), gomock.Any(), "expired").
		Return(nil, domain.AuthErr("session expired"))
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer expired") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"session expired"}`, w.Body.String())

	res.EXPECT().ResolveSession(gomock.Any(), gomock.Any(), "u").
		Return(&domain.Session{Role: domain.RoleUser}, nil)
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer u") })
	assert.Equal(t, http.StatusForbidden, w.Code)

	res.EXPECT().ResolveSession(gomock.Any(), gomock.Any(), "a").
		Return(&domain.Session{Role: domain.RoleAdmin}, nil)
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer a") })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitSharedAcrossClients(t *testing.T) {
	r := engine(mdw.RateLimit(0.0001, 1))
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	w := get(r, func(req *http.Request) { req.RemoteAddr = "10.0.0.9:4000" })
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(mdw.RateLimitPerIP(0.0001, 2, 0))
	for range 2 {
		assert.Equal(t, http.StatusOK, get(r, nil).Code)
	}
	w := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())

	// another client has its own bucket
	w = get(r, func(req *http.Request) { req.RemoteAddr = "10.0.0.9:4000" })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(mdw.MaxBodyBytes(8))
	var readErr error
	r.POST("/echo", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// unknown length is cut while reading
	req = httptest.NewRequest(http.MethodPost, "/echo", io.NopCloser(strings.NewReader("0123456789")))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var mbe *http.MaxBytesError
	require.True(t, errors.As(readErr, &mbe))
}

func TestRequestIDEchoed(t *testing.T) {
	r := engine(mdw.RequestID())
	w := get(r, func(req *http.Request) { req.Header.Set(mdw.KeyRequestID, "abc") })
	assert.Equal(t, "abc", w.Header().Get(mdw.KeyRequestID))
	assert.NotEmpty(t, get(r, nil).Header().Get(mdw.KeyRequestID))
}
