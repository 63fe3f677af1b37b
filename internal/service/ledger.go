package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"causebridge/internal/core/metrics"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

type LedgerService struct {
	*base
}

type DonationInput struct {
	UserID  uint    `json:"user_id"`
	CauseID uint    `json:"cause_id"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Date    string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type VolunteerInput struct {
	UserID  uint    `json:"user_id"`
	CauseID uint    `json:"cause_id"`
	Hours   float64 `json:"hours" validate:"gte=0"`
	Date    string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type FeedbackInput struct {
	UserID  uint   `json:"user_id"`
	CauseID uint   `json:"cause_id"`
	Comment string `json:"comment"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

func (s *LedgerService) RecordDonation(ctx context.Context, caller *domain.Session, in DonationInput) (*domain.Donation, error) {
	if err := selfOnly(caller, in.UserID); err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	date, err := entryDate(in.Date, s.now())
	if err != nil {
		return nil, err
	}
	d := &domain.Donation{UserID: in.UserID, CauseID: in.CauseID, Amount: in.Amount, Date: date}
	err = s.record(ctx, domain.KindDonation, in.UserID, in.CauseID, func(tx repo.Store) error {
		return tx.CreateDonation(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *LedgerService) RecordVolunteer(ctx context.Context, caller *domain.Session, in VolunteerInput) (*domain.Volunteer, error) {
	if err := selfOnly(caller, in.UserID); err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	date, err := entryDate(in.Date, s.now())
	if err != nil {
		return nil, err
	}
	v := &domain.Volunteer{UserID: in.UserID, CauseID: in.CauseID, Hours: in.Hours, Date: date}
	err = s.record(ctx, domain.KindVolunteer, in.UserID, in.CauseID, func(tx repo.Store) error {
		return tx.CreateVolunteer(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *LedgerService) RecordFeedback(ctx context.Context, caller *domain.Session, in FeedbackInput) (*domain.Feedback, error) {
	if err := selfOnly(caller, in.UserID); err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	f := &domain.Feedback{UserID: in.UserID, CauseID: in.CauseID, Comment: strings.TrimSpace(in.Comment), Rating: in.Rating}
	err := s.record(ctx, domain.KindFeedback, in.UserID, in.CauseID, func(tx repo.Store) error {
		return tx.CreateFeedback(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func selfOnly(caller *domain.Session, userID uint) error {
	if err := needSession(caller); err != nil {
		return err
	}
	if !caller.IsUser(userID) {
		return domain.Permission("only a user may record its own engagement")
	}
	return nil
}

// record locks the user's Auth and then the cause's Auth, the order DeleteUser
// takes them in, and inserts while holding both. A concurrent cascade either
// commits first and the row is refused, or waits and deletes the row too.
func (s *LedgerService) record(ctx context.Context, kind domain.EntryKind, userID, causeID uint, insert func(tx repo.Store) error) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	err := s.store.Tx(ctx, func(tx repo.Store) error {
		if _, _, err := lockUser(ctx, tx, userID); err != nil {
			return s.fail(err, userNotFound)
		}
		c, err := tx.CauseByID(ctx, causeID)
		if err != nil {
			return s.fail(err, causeNotFound)
		}
		a, err := tx.LockAuth(ctx, c.AuthID)
		if err != nil {
			return s.fail(err, causeNotFound)
		}
		if !domain.IsVisible(a) {
			return domain.Permission("cause is not verified")
		}
		return insert(tx)
	})
	if err != nil {
		return s.fail(err, causeNotFound)
	}
	metrics.Engagement(string(kind))
	s.log.Debug("engagement recorded", zap.String("kind", string(kind)), zap.Uint("user_id", userID), zap.Uint("cause_id", causeID))
	return nil
}

// load reads the requested kinds, all three when kinds is empty.
func (s *LedgerService) load(ctx context.Context, q repo.LedgerQuery, kinds []domain.EntryKind) (*domain.Engagements, error) {
	want := func(k domain.EntryKind) bool { return len(kinds) == 0 || slices.Contains(kinds, k) }
	out := &domain.Engagements{
		Donations:  []domain.Donation{},
		Volunteers: []domain.Volunteer{},
		Feedbacks:  []domain.Feedback{},
	}
	err := s.store.Tx(ctx, func(tx repo.Store) error {
		var err error
		if want(domain.KindDonation) {
			if out.Donations, err = tx.Donations(ctx, q); err != nil {
				return err
			}
		}
		if want(domain.KindVolunteer) {
			if out.Volunteers, err = tx.Volunteers(ctx, q); err != nil {
				return err
			}
		}
		if want(domain.KindFeedback) {
			if out.Feedbacks, err = tx.Feedbacks(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "not found")
	}
	return out, nil
}

func (s *LedgerService) ListByUser(ctx context.Context, caller *domain.Session, userID uint, kinds ...domain.EntryKind) (*domain.Engagements, error) {
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
	return s.load(ctx, repo.LedgerQuery{UserID: userID}, kinds)
}

func (s *LedgerService) ListByCause(ctx context.Context, caller *domain.Session, causeID uint, kinds ...domain.EntryKind) (*domain.Engagements, error) {
	if err := needSession(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	c, err := s.store.CauseByID(ctx, causeID)
	if err != nil {
		return nil, s.fail(err, causeNotFound)
	}
	if !canManageCause(caller, c) {
		return nil, deny(caller, domain.IsVisible(c.Auth), causeNotFound)
	}
	return s.load(ctx, repo.LedgerQuery{CauseID: causeID}, kinds)
}

// DeleteEntry lets the user who created a row, or an admin, remove it.
func (s *LedgerService) DeleteEntry(ctx context.Context, caller *domain.Session, kind domain.EntryKind, id uint) error {
	if err := needSession(caller); err != nil {
		return err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	err := s.store.Tx(ctx, func(tx repo.Store) error {
		owner, err := tx.EntryOwner(ctx, kind, id)
		if err != nil {
			return err
		}
		if !caller.IsAdmin() && !caller.IsUser(owner) {
			return domain.Permission("not allowed")
		}
		return tx.DeleteEntry(ctx, kind, id)
	})
	if err != nil {
		return s.fail(err, string(kind)+" not found")
	}
	s.log.Info("engagement deleted", zap.String("kind", string(kind)), zap.Uint("id", id), zap.Uint("by_auth_id", caller.AuthID))
	return nil
}
