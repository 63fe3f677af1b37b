package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"causebridge/internal/core/cache"
	"causebridge/internal/core/session"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

const publicCausesNS = "causes:public"

type Deps struct {
	Store    repo.Store
	Sessions *session.Manager
	Cache    *cache.Cache // nil disables caching
	Log      *zap.Logger

	Timeout              time.Duration // per operation storage budget
	CacheTTL             time.Duration
	MinPasswordLen       int
	RequireVerifiedLogin bool
	Now                  func() time.Time
}

// Services bundles the five components over one store.
type Services struct {
	Identity     *IdentityService
	Registry     *RegistryService
	Verification *VerificationService
	Ledger       *LedgerService
	Dashboard    *DashboardService
}

func New(d Deps) *Services {
	b := newBase(d)
	reg := &RegistryService{base: b}
	led := &LedgerService{base: b}
	return &Services{
		Identity:     &IdentityService{base: b, sessions: d.Sessions},
		Registry:     reg,
		Verification: &VerificationService{base: b},
		Ledger:       led,
		Dashboard:    &DashboardService{base: b, registry: reg, ledger: led},
	}
}

type base struct {
	store                repo.Store
	cache                *cache.Cache
	log                  *zap.Logger
	timeout              time.Duration
	cacheTTL             time.Duration
	minPasswordLen       int
	requireVerifiedLogin bool
	now                  func() time.Time
}

func newBase(d Deps) *base {
	b := &base{
		store:                d.Store,
		cache:                d.Cache,
		log:                  d.Log,
		timeout:              d.Timeout,
		cacheTTL:             d.CacheTTL,
		minPasswordLen:       d.MinPasswordLen,
		requireVerifiedLogin: d.RequireVerifiedLogin,
		now:                  d.Now,
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.timeout <= 0 {
		b.timeout = 3 * time.Second
	}
	if b.cacheTTL <= 0 {
		b.cacheTTL = 5 * time.Second
	}
	if b.minPasswordLen <= 0 {
		b.minPasswordLen = 8
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// scope bounds the storage work of one operation.
func (b *base) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// fail translates store errors into domain errors. Domain errors pass through
// so a Tx body can return them directly.
func (b *base) fail(err error, notFound string) error {
	var de *domain.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, repo.ErrNotFound):
		return domain.NotFound(notFound)
	case errors.Is(err, repo.ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.Transient(err)
	}
	return domain.Internal("storage failure", err)
}

func (b *base) invalidatePublic(ctx context.Context) {
	if err := b.cache.Bump(context.WithoutCancel(ctx), publicCausesNS); err != nil {
		b.log.Warn("cache bump failed", zap.String("ns", publicCausesNS), zap.Error(err))
	}
}

func needSession(s *domain.Session) error {
	if s == nil {
		return domain.AuthErr("login required")
	}
	return nil
}

func requireAdmin(s *domain.Session) error {
	if err := needSession(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return domain.Permission("admin only")
	}
	return nil
}

// deny is the refusal for a caller lacking rights over an entity. Hidden
// entities look absent so their existence does not leak.
func deny(s *domain.Session, visible bool, notFound string) error {
	if !visible {
		return domain.NotFound(notFound)
	}
	if s == nil {
		return domain.AuthErr("login required")
	}
	return domain.Permission("not allowed")
}

// canManageCause covers the cause's own account, its owning user and admins.
func canManageCause(s *domain.Session, c *domain.Cause) bool {
	return s.IsAdmin() || s.IsCause(c.ID) || s.IsUser(c.OwnerUserID)
}

func canManageUser(s *domain.Session, userID uint) bool {
	return s.IsAdmin() || s.IsUser(userID)
}

// lockUser loads a user and takes the row lock on its Auth. Within a Tx the
// user's Auth is always locked before any cause Auth, so writers touching a
// user and one of its causes cannot deadlock. The returned Auth is the locked
// row; ErrNotFound means the user is gone or was deleted while waiting.
func lockUser(ctx context.Context, tx repo.Store, userID uint) (*domain.User, *domain.Auth, error) {
	u, err := tx.UserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	a, err := tx.LockAuth(ctx, u.AuthID)
	if err != nil {
		return nil, nil, err
	}
	return u, a, nil
}
