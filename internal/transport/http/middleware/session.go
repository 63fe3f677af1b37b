package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	resp "causebridge/internal/transport/http/response"
)

//go:generate mockgen -source=session.go -destination=mocks/resolver.go -package=mocks Resolver

// Resolver turns a presented credential into a live session.
type Resolver interface {
	ResolveSession(ctx context.Context, carrier domain.Carrier, credential string) (*domain.Session, error)
}

const (
	keySession    = "session"
	keySessionErr = "session_err"
)

// Session resolves a bearer token or the session cookie, in that order. A
// missing credential leaves the request anonymous; a bad one is remembered so
// routes that need a session can report why.
func Session(r Resolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		carrier, cred := credential(c, cookieName)
		if cred == "" {
			c.Next()
			return
		}
		s, err := r.ResolveSession(c.Request.Context(), carrier, cred)
		if err != nil {
			c.Set(keySessionErr, err)
		} else {
			c.Set(keySession, s)
		}
		c.Next()
	}
}

func credential(c *gin.Context, cookieName string) (domain.Carrier, string) {
	if ah := c.GetHeader("Authorization"); ah != "" {
		if tok, ok := strings.CutPrefix(ah, "Bearer "); ok {
			return domain.CarrierBearer, strings.TrimSpace(tok)
		}
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return domain.CarrierCookie, v
		}
	}
	return "", ""
}

// SessionFrom returns the resolved session, nil for anonymous callers.
func SessionFrom(c *gin.Context) *domain.Session {
	if v, ok := c.Get(keySession); ok {
		s, _ := v.(*domain.Session)
		return s
	}
	return nil
}

// SessionErr returns why a presented credential was rejected, if it was.
func SessionErr(c *gin.Context) error {
	if v, ok := c.Get(keySessionErr); ok {
		err, _ := v.(error)
		return err
	}
	return nil
}

// RequireRole stops the chain unless the session carries one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessionFrom(c)
		if s == nil {
			err := SessionErr(c)
			if err == nil {
				err = domain.AuthErr("login required")
			}
			resp.Fail(c, nil, err)
			return
		}
		for _, r := range roles {
			if s.Role == r {
				c.Next()
				return
			}
		}
		resp.Fail(c, nil, domain.Permission("forbidden"))
	}
}
