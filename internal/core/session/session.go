package session

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"causebridge/internal/core/auth"
	"causebridge/internal/domain"
	"causebridge/pkg/utils"
)

var (
	ErrInvalid  = errors.New("session: invalid credential")
	ErrExpired  = errors.New("session: expired")
	ErrRevoked  = errors.New("session: revoked")
	ErrDisabled = errors.New("session: carrier disabled")
)

type Mode string

const (
	ModeBearer Mode = "bearer"
	ModeCookie Mode = "cookie"
	ModeBoth   Mode = "both"
)

func (m Mode) bearer() bool { return m == ModeBearer || m == ModeBoth }
func (m Mode) cookie() bool { return m == ModeCookie || m == ModeBoth }

type Options struct {
	Mode Mode
	TTL  time.Duration
	// DenyBearer keeps ended bearer token ids in the store until they expire.
	DenyBearer bool
}

// Manager issues and resolves both session carriers. Bearer tokens are
// stateless JWTs; cookie sessions live in the Store under a random id.
type Manager struct {
	jwt   *auth.JWTer
	store Store
	opts  Options
	now   func() time.Time
}

func NewManager(j *auth.JWTer, store Store, opts Options) *Manager {
	if opts.Mode == "" {
		opts.Mode = ModeBoth
	}
	if opts.TTL <= 0 {
		opts.TTL = j.TTL
	}
	return &Manager{jwt: j, store: store, opts: opts, now: time.Now}
}

// WithClock replaces the clock used for cookie expiry.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Mode() Mode { return m.opts.Mode }

// Issued holds the credentials handed out at login. Token is empty when
// bearer sessions are disabled, CookieID when cookie sessions are.
type Issued struct {
	Token     string
	CookieID  string
	ExpiresAt time.Time
}

func (m *Manager) Issue(ctx context.Context, a *domain.Auth) (*Issued, error) {
	out := &Issued{}
	if m.opts.Mode.bearer() {
		tok, claims, err := m.jwt.Issue(a.ID, string(a.Role))
		if err != nil {
			return nil, fmt.Errorf("sign token: %w", err)
		}
		out.Token = tok
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if m.opts.Mode.cookie() {
		exp := m.now().Add(m.opts.TTL)
		rec := Record{
			ID:        utils.NewID(),
			AuthID:    a.ID,
			Role:      a.Role,
			Carrier:   domain.CarrierCookie,
			ExpiresAt: exp,
		}
		if err := m.store.Put(ctx, cookieKey(rec.ID), rec, m.opts.TTL); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		out.CookieID = rec.ID
		if out.ExpiresAt.IsZero() {
			out.ExpiresAt = exp
		}
	}
	return out, nil
}

// Resolve turns a credential into a Session carrying the account id and role
// it was issued for. Callers must still confirm the account exists.
func (m *Manager) Resolve(ctx context.Context, carrier domain.Carrier, credential string) (*domain.Session, error) {
	if credential == "" {
		return nil, ErrInvalid
	}
	switch carrier {
	case domain.CarrierBearer:
		if !m.opts.Mode.bearer() {
			return nil, ErrDisabled
		}
		return m.resolveBearer(ctx, credential)
	case domain.CarrierCookie:
		if !m.opts.Mode.cookie() {
			return nil, ErrDisabled
		}
		return m.resolveCookie(ctx, credential)
	}
	return nil, ErrInvalid
}

func (m *Manager) resolveBearer(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := m.jwt.Parse(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, ErrInvalid
	}
	if m.opts.DenyBearer {
		_, err := m.store.Get(ctx, denyKey(claims.ID))
		switch {
		case err == nil:
			return nil, ErrRevoked
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	return &domain.Session{
		ID:        claims.ID,
		AuthID:    claims.AuthID,
		Role:      domain.Role(claims.Role),
		Carrier:   domain.CarrierBearer,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *Manager) resolveCookie(ctx context.Context, id string) (*domain.Session, error) {
	rec, err := m.store.Get(ctx, cookieKey(id))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, err
	}
	if !m.now().Before(rec.ExpiresAt) {
		_ = m.store.Delete(ctx, cookieKey(id))
		return nil, ErrExpired
	}
	return &domain.Session{
		ID:        rec.ID,
		AuthID:    rec.AuthID,
		Role:      rec.Role,
		Carrier:   domain.CarrierCookie,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// End is idempotent. Cookie sessions are deleted; bearer tokens are denied
// only when DenyBearer is set.
func (m *Manager) End(ctx context.Context, s *domain.Session) error {
	if s == nil || s.ID == "" {
		return nil
	}
	switch s.Carrier {
	case domain.CarrierCookie:
		return m.store.Delete(ctx, cookieKey(s.ID))
	case domain.CarrierBearer:
		if !m.opts.DenyBearer {
			return nil
		}
		ttl := s.ExpiresAt.Sub(m.now())
		if ttl <= 0 {
			return nil
		}
		return m.store.Put(ctx, denyKey(s.ID), Record{
			ID:        s.ID,
			AuthID:    s.AuthID,
			Role:      s.Role,
			Carrier:   domain.CarrierBearer,
			ExpiresAt: s.ExpiresAt,
		}, ttl)
	}
	return nil
}

func cookieKey(id string) string { return "sid:" + id }
func denyKey(id string) string   { return "deny:" + id }
