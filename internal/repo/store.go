package repo

import (
	"context"
	"errors"

	"causebridge/internal/domain"
)

var (
	ErrNotFound  = errors.New("repo: not found")
	ErrConflict  = errors.New("repo: conflict")
	ErrTransient = errors.New("repo: transient")
)

// CauseQuery narrows a cause listing. Zero fields do not filter.
type CauseQuery struct {
	Type        domain.CauseType
	Text        string
	OwnerUserID uint
}

// LedgerQuery selects ledger rows by user, by cause, or by both.
type LedgerQuery struct {
	UserID  uint
	CauseID uint
}

func (q LedgerQuery) empty() bool { return q.UserID == 0 && q.CauseID == 0 }

// Store is the persistence boundary. Loads of users and causes attach the
// owning Auth. Listings are ordered by primary key.
type Store interface {
	// Tx runs fn atomically; any error rolls back every write fn made.
	Tx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	CreateAuth(ctx context.Context, a *domain.Auth) error
	AuthByID(ctx context.Context, id uint) (*domain.Auth, error)
	AuthByName(ctx context.Context, name string) (*domain.Auth, error)
	// LockAuth reads the row and holds it until the surrounding Tx ends.
	LockAuth(ctx context.Context, id uint) (*domain.Auth, error)
	SetVerified(ctx context.Context, id uint, verified bool) error
	SetPassword(ctx context.Context, id uint, hash string) error
	DeleteAuth(ctx context.Context, id uint) error

	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id uint) (*domain.User, error)
	UserByAuth(ctx context.Context, authID uint) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SaveUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id uint) error

	CreateCause(ctx context.Context, c *domain.Cause) error
	CauseByID(ctx context.Context, id uint) (*domain.Cause, error)
	CauseByAuth(ctx context.Context, authID uint) (*domain.Cause, error)
	ListCauses(ctx context.Context, q CauseQuery) ([]domain.Cause, error)
	SaveCause(ctx context.Context, c *domain.Cause) error
	ReplaceLocations(ctx context.Context, causeID uint, locs []domain.Location) error
	DeleteLocations(ctx context.Context, causeID uint) error
	DeleteCause(ctx context.Context, id uint) error

	CreateDonation(ctx context.Context, d *domain.Donation) error
	CreateVolunteer(ctx context.Context, v *domain.Volunteer) error
	CreateFeedback(ctx context.Context, f *domain.Feedback) error
	Donations(ctx context.Context, q LedgerQuery) ([]domain.Donation, error)
	Volunteers(ctx context.Context, q LedgerQuery) ([]domain.Volunteer, error)
	Feedbacks(ctx context.Context, q LedgerQuery) ([]domain.Feedback, error)
	// EntryOwner returns the user id that created the ledger row.
	EntryOwner(ctx context.Context, kind domain.EntryKind, id uint) (uint, error)
	DeleteEntry(ctx context.Context, kind domain.EntryKind, id uint) error
	// DeleteEntries removes every donation, volunteer and feedback row matching q.
	DeleteEntries(ctx context.Context, q LedgerQuery) error
}
