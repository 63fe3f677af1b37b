package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"causebridge/internal/core/metrics"
	"causebridge/internal/core/session"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
	"causebridge/pkg/utils"
)

const badCredentials = "invalid name or password"

type IdentityService struct {
	*base
	sessions *session.Manager
}

// RegisterInput covers all three registrable roles. Fields that do not apply
// to the chosen role are ignored once their shape checks pass.
type RegisterInput struct {
	Name        string   `json:"name"`
	Password    string   `json:"password"`
	Role        string   `json:"role"` // user | ngo | event
	Email       string   `json:"email" validate:"omitempty,email"`
	Description string   `json:"description"`
	Contacts    []string `json:"contacts"`
	Socials     []string `json:"socials"`
	Age         *int     `json:"age" validate:"omitnil,gte=0"`

	OwnerUserID uint            `json:"owner_user_id"`
	Logo        string          `json:"logo"`
	Online      bool            `json:"online"`
	Locations   []LocationInput `json:"locations" validate:"dive"`
	YearEst     *int            `json:"year_est" validate:"omitnil,gte=1800"`
	Date        string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        string          `json:"time" validate:"omitempty,datetime=15:04"`
	Capacity    *int            `json:"capacity" validate:"omitnil,gte=0"`
}

type RegisterResult struct {
	AuthID  uint        `json:"auth_id"`
	Role    domain.Role `json:"role"`
	UserID  uint        `json:"user_id,omitempty"`
	CauseID uint        `json:"cause_id,omitempty"`
}

func (s *IdentityService) Register(ctx context.Context, caller *domain.Session, in RegisterInput) (*RegisterResult, error) {
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < s.minPasswordLen {
		return nil, domain.Validationf("password must be at least %d characters", s.minPasswordLen)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	var (
		role  domain.Role
		cause *domain.Cause
		user  *domain.User
	)
	switch r := strings.ToLower(strings.TrimSpace(in.Role)); r {
	case "user":
		role = domain.RoleUser
		user = &domain.User{
			Email:       in.Email,
			Description: in.Description,
			Contacts:    cleanList(in.Contacts),
			Socials:     cleanList(in.Socials),
		}
		if in.Age != nil {
			user.Age = *in.Age
		}
	case "ngo", "event":
		role = domain.RoleCause
		if cause, err = s.buildCause(caller, name, r, in); err != nil {
			return nil, err
		}
	case "admin":
		return nil, domain.Validation("admin accounts cannot be registered")
	default:
		return nil, domain.Validation("role must be one of user, ngo, event")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	res := &RegisterResult{Role: role}
	err = s.store.Tx(ctx, func(tx repo.Store) error {
		if cause != nil {
			_, owner, err := lockUser(ctx, tx, cause.OwnerUserID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && !domain.IsVisible(owner)) {
				return domain.Validation("owner user missing or unverified")
			}
			if err != nil {
				return err
			}
		}
		a := &domain.Auth{Name: name, PasswordHash: hash, Role: role}
		if err := tx.CreateAuth(ctx, a); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return domain.Validation("name already taken")
			}
			return err
		}
		res.AuthID = a.ID
		if user != nil {
			user.AuthID = a.ID
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			res.UserID = user.ID
			return nil
		}
		cause.AuthID = a.ID
		if err := tx.CreateCause(ctx, cause); err != nil {
			return err
		}
		res.CauseID = cause.ID
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "not found")
	}

	metrics.Registration(string(role))
	s.log.Info("account registered",
		zap.Uint("auth_id", res.AuthID),
		zap.String("role", string(role)),
		zap.Uint("user_id", res.UserID),
		zap.Uint("cause_id", res.CauseID),
	)
	return res, nil
}

func (s *IdentityService) buildCause(caller *domain.Session, name, kind string, in RegisterInput) (*domain.Cause, error) {
	owner := in.OwnerUserID
	if caller != nil && caller.Role == domain.RoleUser {
		switch {
		case owner == 0:
			owner = caller.UserID
		case owner != caller.UserID:
			return nil, domain.Permission("cannot register a cause for another user")
		}
	}
	if owner == 0 {
		return nil, domain.Validation("owner_user_id is required")
	}

	c := &domain.Cause{
		OwnerUserID: owner,
		Name:        name,
		Description: in.Description,
		Logo:        in.Logo,
		Email:       in.Email,
		Online:      in.Online,
		Contacts:    cleanList(in.Contacts),
		Socials:     cleanList(in.Socials),
		Locations:   buildLocations(in.Locations),
	}
	if kind == "ngo" {
		c.Type = domain.CauseNGO
		if err := checkYearEst(in.YearEst, s.now()); err != nil {
			return nil, err
		}
		c.YearEst, c.Age = in.YearEst, in.Age
		return c, nil
	}
	c.Type = domain.CauseEvent
	if in.Date == "" {
		return nil, domain.Validation("date is required for events")
	}
	c.EventDate, c.EventTime, c.Capacity = in.Date, in.Time, in.Capacity
	return c, nil
}

type LoginResult struct {
	Token     string      `json:"token,omitempty"`
	CookieID  string      `json:"-"`
	AuthID    uint        `json:"auth_id"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// dummyHash gives unknown names the same bcrypt cost as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	h, _ := utils.HashPassword("causebridge-dummy-password")
	return h
})

func (s *IdentityService) Authenticate(ctx context.Context, name, password string) (*LoginResult, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	a, err := s.store.AuthByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, repo.ErrNotFound) {
		utils.CheckPassword(password, dummyHash())
		metrics.Login("rejected")
		return nil, domain.AuthErr(badCredentials)
	}
	if err != nil {
		return nil, s.fail(err, badCredentials)
	}
	if !utils.CheckPassword(password, a.PasswordHash) {
		metrics.Login("rejected")
		return nil, domain.AuthErr(badCredentials)
	}
	if s.requireVerifiedLogin && !a.Verified {
		metrics.Login("unverified")
		return nil, domain.Permission("account not verified by admin")
	}

	iss, err := s.sessions.Issue(ctx, a)
	if err != nil {
		return nil, domain.Transient(err)
	}
	metrics.Login("ok")
	s.log.Info("login", zap.Uint("auth_id", a.ID), zap.String("role", string(a.Role)))
	return &LoginResult{
		Token:     iss.Token,
		CookieID:  iss.CookieID,
		AuthID:    a.ID,
		Role:      a.Role,
		Name:      a.Name,
		ExpiresAt: iss.ExpiresAt,
	}, nil
}

func (s *IdentityService) EndSession(ctx context.Context, caller *domain.Session) error {
	if caller == nil {
		return nil
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()
	if err := s.sessions.End(ctx, caller); err != nil {
		return domain.Transient(err)
	}
	return nil
}

// ResolveSession validates a credential and re-reads the account behind it, so
// a deleted account or a changed role invalidates live tokens.
func (s *IdentityService) ResolveSession(ctx context.Context, carrier domain.Carrier, credential string) (*domain.Session, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	sess, err := s.sessions.Resolve(ctx, carrier, credential)
	switch {
	case errors.Is(err, session.ErrExpired):
		return nil, domain.AuthErr("session expired")
	case errors.Is(err, session.ErrInvalid), errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrDisabled):
		return nil, domain.AuthErr("invalid session")
	case err != nil:
		return nil, domain.Transient(err)
	}

	a, err := s.store.AuthByID(ctx, sess.AuthID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, domain.AuthErr("account no longer exists")
	}
	if err != nil {
		return nil, s.fail(err, "")
	}
	if a.Role != sess.Role {
		return nil, domain.AuthErr("invalid session")
	}

	switch a.Role {
	case domain.RoleUser:
		u, err := s.store.UserByAuth(ctx, a.ID)
		if err != nil {
			return nil, s.profileGone(err)
		}
		sess.UserID = u.ID
	case domain.RoleCause:
		c, err := s.store.CauseByAuth(ctx, a.ID)
		if err != nil {
			return nil, s.profileGone(err)
		}
		sess.CauseID = c.ID
	}
	return sess, nil
}

func (s *IdentityService) profileGone(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.AuthErr("account no longer exists")
	}
	return s.fail(err, "")
}

type Profile struct {
	AuthID   uint          `json:"auth_id"`
	Name     string        `json:"name"`
	Role     domain.Role   `json:"role"`
	Verified bool          `json:"verified"`
	User     *domain.User  `json:"user"`
	Cause    *domain.Cause `json:"cause"`
}

func (s *IdentityService) CurrentProfile(ctx context.Context, caller *domain.Session) (*Profile, error) {
	if err := needSession(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	a, err := s.store.AuthByID(ctx, caller.AuthID)
	if err != nil {
		return nil, s.profileGone(err)
	}
	p := &Profile{AuthID: a.ID, Name: a.Name, Role: a.Role, Verified: a.Verified}
	switch a.Role {
	case domain.RoleUser:
		if p.User, err = s.store.UserByAuth(ctx, a.ID); err != nil {
			return nil, s.profileGone(err)
		}
	case domain.RoleCause:
		if p.Cause, err = s.store.CauseByAuth(ctx, a.ID); err != nil {
			return nil, s.profileGone(err)
		}
	}
	return p, nil
}

// EnsureAdmin creates a verified admin account when name is free. With reset
// set, an existing admin gets the new password.
func (s *IdentityService) EnsureAdmin(ctx context.Context, name, password string, reset bool) (created bool, err error) {
	name, err = checkName(name)
	if err != nil {
		return false, err
	}
	if len(password) < s.minPasswordLen {
		return false, domain.Validationf("password must be at least %d characters", s.minPasswordLen)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, domain.Internal("hash password", err)
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	err = s.store.Tx(ctx, func(tx repo.Store) error {
		a, err := tx.AuthByName(ctx, name)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			created = true
			return tx.CreateAuth(ctx, &domain.Auth{Name: name, PasswordHash: hash, Role: domain.RoleAdmin, Verified: true})
		case err != nil:
			return err
		case a.Role != domain.RoleAdmin:
			return domain.Validationf("account %q exists and is not an admin", name)
		case reset:
			return tx.SetPassword(ctx, a.ID, hash)
		}
		return nil
	})
	if err != nil {
		return false, s.fail(err, "account not found")
	}
	if created {
		s.log.Info("admin provisioned", zap.String("name", name))
	} else if reset {
		s.log.Info("admin password reset", zap.String("name", name))
	}
	return created, nil
}
