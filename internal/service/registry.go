package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"causebridge/internal/core/cache"
	"causebridge/internal/core/metrics"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

const (
	causeNotFound = "cause not found"
	userNotFound  = "user not found"
)

type RegistryService struct {
	*base
}

type CauseFilter struct {
	Type string `form:"type"`
	Q    string `form:"q"`
}

// PublicCauses lists verified causes only. Results are cached briefly under a
// generation key that every visibility change bumps.
func (s *RegistryService) PublicCauses(ctx context.Context, f CauseFilter) ([]domain.Cause, error) {
	q := repo.CauseQuery{Text: strings.TrimSpace(f.Q)}
	if t := strings.TrimSpace(f.Type); t != "" {
		ct, ok := domain.ParseCauseType(t)
		if !ok {
			return nil, domain.Validation("type must be NGO or Event")
		}
		q.Type = ct
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	load := func(ctx context.Context) ([]domain.Cause, error) {
		all, err := s.store.ListCauses(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Cause, 0, len(all))
		for _, c := range all {
			if domain.IsVisible(c.Auth) {
				out = append(out, c)
			}
		}
		return out, nil
	}
	key := fmt.Sprintf("t=%s:q=%s", q.Type, strings.ToLower(q.Text))
	out, err := cache.Load(ctx, s.cache, publicCausesNS, key, s.cacheTTL, load, func(err error) {
		s.log.Warn("cache version unavailable", zap.Error(err))
	})
	if err != nil {
		return nil, s.fail(err, causeNotFound)
	}
	if out == nil {
		out = []domain.Cause{}
	}
	return out, nil
}

// CauseByID hides unverified causes from everyone except their managers.
func (s *RegistryService) CauseByID(ctx context.Context, caller *domain.Session, id uint) (*domain.Cause, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	c, err := s.store.CauseByID(ctx, id)
	if err != nil {
		return nil, s.fail(err, causeNotFound)
	}
	if !domain.IsVisible(c.Auth) && !canManageCause(caller, c) {
		return nil, domain.NotFound(causeNotFound)
	}
	return c, nil
}

// UserByID returns the full profile to the user and admins, the public
// projection of a verified user to everyone else.
func (s *RegistryService) UserByID(ctx context.Context, caller *domain.Session, id uint) (*domain.User, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, s.fail(err, userNotFound)
	}
	if canManageUser(caller, u.ID) {
		return u, nil
	}
	if !domain.IsVisible(u.Auth) {
		return nil, domain.NotFound(userNotFound)
	}
	pub := u.Public()
	return &pub, nil
}

func (s *RegistryService) OwnedCauses(ctx context.Context, caller *domain.Session, userID uint) ([]domain.Cause, error) {
	if err := needSession(caller); err != nil {
		return nil, err
	}
	if !canManageUser(caller, userID) {
		return nil, domain.Permission("not allowed")
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, s.fail(err, userNotFound)
	}
	out, err := s.store.ListCauses(ctx, repo.CauseQuery{OwnerUserID: userID})
	return out, s.fail(err, causeNotFound)
}

func (s *RegistryService) ListUsers(ctx context.Context, caller *domain.Session) ([]domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()
	out, err := s.store.ListUsers(ctx)
	return out, s.fail(err, userNotFound)
}

func (s *RegistryService) ListCauses(ctx context.Context, caller *domain.Session) ([]domain.Cause, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()
	out, err := s.store.ListCauses(ctx, repo.CauseQuery{})
	return out, s.fail(err, causeNotFound)
}

type UserDetail struct {
	User   *domain.User   `json:"user"`
	Causes []domain.Cause `json:"causes"`
}

// AdminUser is the unfiltered view of one user and the causes it owns.
func (s *RegistryService) AdminUser(ctx context.Context, caller *domain.Session, id uint) (*UserDetail, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := s.UserByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	causes, err := s.OwnedCauses(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: u, Causes: causes}, nil
}

// UserPatch holds the editable profile fields. Nil fields are left alone.
type UserPatch struct {
	Email       *string   `json:"email" validate:"omitempty,email"`
	Age         *int      `json:"age" validate:"omitnil,gte=0"`
	Description *string   `json:"description"`
	Contacts    *[]string `json:"contacts"`
	Socials     *[]string `json:"socials"`
}

func (s *RegistryService) UpdateUser(ctx context.Context, caller *domain.Session, id uint, p UserPatch) (*domain.User, error) {
	if err := needSession(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, s.fail(err, userNotFound)
	}
	if !canManageUser(caller, u.ID) {
		return nil, deny(caller, domain.IsVisible(u.Auth), userNotFound)
	}
	if err := checkInput(p); err != nil {
		return nil, err
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.Description != nil {
		u.Description = *p.Description
	}
	if p.Contacts != nil {
		u.Contacts = cleanList(*p.Contacts)
	}
	if p.Socials != nil {
		u.Socials = cleanList(*p.Socials)
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, s.fail(err, userNotFound)
	}
	u, err = s.store.UserByID(ctx, id)
	return u, s.fail(err, userNotFound)
}

// CausePatch holds the editable cause fields. Type specific fields must match
// the cause type. A non-nil Locations replaces the whole set.
type CausePatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Logo        *string          `json:"logo"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Online      *bool            `json:"online"`
	Contacts    *[]string        `json:"contacts"`
	Socials     *[]string        `json:"socials"`
	Locations   *[]LocationInput `json:"locations" validate:"omitnil,dive"`

	YearEst *int `json:"year_est" validate:"omitnil,gte=1800"`
	Age     *int `json:"age" validate:"omitnil,gte=0"`

	Date     *string `json:"date" validate:"omitnil,datetime=2006-01-02"`
	Time     *string `json:"time" validate:"omitempty,datetime=15:04"`
	Capacity *int    `json:"capacity" validate:"omitnil,gte=0"`
}

func (s *RegistryService) UpdateCause(ctx context.Context, caller *domain.Session, id uint, p CausePatch) (*domain.Cause, error) {
	if err := needSession(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	var out *domain.Cause
	err := s.store.Tx(ctx, func(tx repo.Store) error {
		c, err := tx.CauseByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageCause(caller, c) {
			return deny(caller, domain.IsVisible(c.Auth), causeNotFound)
		}
		if err := checkInput(p); err != nil {
			return err
		}
		if err := s.applyCausePatch(c, p); err != nil {
			return err
		}
		if err := tx.SaveCause(ctx, c); err != nil {
			return err
		}
		if p.Locations != nil {
			if err := tx.ReplaceLocations(ctx, c.ID, buildLocations(*p.Locations)); err != nil {
				return err
			}
		}
		out, err = tx.CauseByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(err, causeNotFound)
	}
	s.invalidatePublic(ctx)
	return out, nil
}

func (s *RegistryService) applyCausePatch(c *domain.Cause, p CausePatch) error {
	if p.Name != nil {
		name, err := checkName(*p.Name)
		if err != nil {
			return err
		}
		c.Name = name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Logo != nil {
		c.Logo = *p.Logo
	}
	if p.Online != nil {
		c.Online = *p.Online
	}
	if p.Contacts != nil {
		c.Contacts = cleanList(*p.Contacts)
	}
	if p.Socials != nil {
		c.Socials = cleanList(*p.Socials)
	}

	ngoFields := p.YearEst != nil || p.Age != nil
	eventFields := p.Date != nil || p.Time != nil || p.Capacity != nil
	switch c.Type {
	case domain.CauseNGO:
		if eventFields {
			return domain.Validation("date, time and capacity apply to Event causes only")
		}
		if err := checkYearEst(p.YearEst, s.now()); err != nil {
			return err
		}
		if p.YearEst != nil {
			c.YearEst = p.YearEst
		}
		if p.Age != nil {
			c.Age = p.Age
		}
	case domain.CauseEvent:
		if ngoFields {
			return domain.Validation("year_est and age apply to NGO causes only")
		}
		if p.Date != nil {
			c.EventDate = *p.Date
		}
		if p.Time != nil {
			c.EventTime = *p.Time
		}
		if p.Capacity != nil {
			c.Capacity = p.Capacity
		}
	}
	return nil
}

// DeleteUser removes the user, every cause it owns and every ledger row that
// references any of them, in one transaction.
func (s *RegistryService) DeleteUser(ctx context.Context, caller *domain.Session, id uint) error {
	if err := needSession(caller); err != nil {
		return err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	var removed []uint
	err := s.store.Tx(ctx, func(tx repo.Store) error {
		u, err := tx.UserByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageUser(caller, u.ID) {
			return deny(caller, domain.IsVisible(u.Auth), userNotFound)
		}
		if _, _, err := lockUser(ctx, tx, u.ID); err != nil {
			return err
		}
		owned, err := tx.ListCauses(ctx, repo.CauseQuery{OwnerUserID: u.ID})
		if err != nil {
			return err
		}
		for i := range owned {
			if err := deleteCauseTx(ctx, tx, &owned[i]); err != nil {
				return err
			}
			removed = append(removed, owned[i].ID)
		}
		if err := tx.DeleteEntries(ctx, repo.LedgerQuery{UserID: u.ID}); err != nil {
			return err
		}
		if err := tx.DeleteUser(ctx, u.ID); err != nil {
			return err
		}
		return tx.DeleteAuth(ctx, u.AuthID)
	})
	if err != nil {
		return s.fail(err, userNotFound)
	}

	metrics.Deletion("user")
	s.invalidatePublic(ctx)
	s.log.Info("user deleted",
		zap.Uint("user_id", id),
		zap.Uints("cause_ids", removed),
		zap.Uint("by_auth_id", caller.AuthID),
	)
	return nil
}

func (s *RegistryService) DeleteCause(ctx context.Context, caller *domain.Session, id uint) error {
	if err := needSession(caller); err != nil {
		return err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	err := s.store.Tx(ctx, func(tx repo.Store) error {
		c, err := tx.CauseByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageCause(caller, c) {
			return deny(caller, domain.IsVisible(c.Auth), causeNotFound)
		}
		return deleteCauseTx(ctx, tx, c)
	})
	if err != nil {
		return s.fail(err, causeNotFound)
	}

	metrics.Deletion("cause")
	s.invalidatePublic(ctx)
	s.log.Info("cause deleted", zap.Uint("cause_id", id), zap.Uint("by_auth_id", caller.AuthID))
	return nil
}

// deleteCauseTx must run inside a Tx. The Auth row is locked first so a
// concurrent verification toggle either finishes before or sees the delete.
func deleteCauseTx(ctx context.Context, tx repo.Store, c *domain.Cause) error {
	if _, err := tx.LockAuth(ctx, c.AuthID); err != nil {
		return err
	}
	if err := tx.DeleteEntries(ctx, repo.LedgerQuery{CauseID: c.ID}); err != nil {
		return err
	}
	if err := tx.DeleteLocations(ctx, c.ID); err != nil {
		return err
	}
	if err := tx.DeleteCause(ctx, c.ID); err != nil {
		return err
	}
	return tx.DeleteAuth(ctx, c.AuthID)
}
