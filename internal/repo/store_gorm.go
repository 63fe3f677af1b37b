package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"causebridge/internal/domain"
)

type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

var _ Store = (*GormStore)(nil)

// Models lists every table the store owns, parents first.
func Models() []any {
	return []any{
		&domain.Auth{}, &domain.User{}, &domain.Cause{}, &domain.Location{},
		&domain.Donation{}, &domain.Volunteer{}, &domain.Feedback{},
	}
}

func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(Models()...)
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

func (s *GormStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
	return mapErr(err)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return mapErr(err)
	}
	return mapErr(sqlDB.PingContext(ctx))
}

// mapErr folds driver and gorm errors into the package sentinels. Domain errors
// and errors already carrying a sentinel pass through untouched.
func mapErr(err error) error {
	var de *domain.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrTransient):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDupKey(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn), isRetryable(err):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func isDupKey(err error) bool {
	// drivers disagree on error types; match the message
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "canceling statement due to") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "bad connection")
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- auth ----------

func (s *GormStore) CreateAuth(ctx context.Context, a *domain.Auth) error {
	return mapErr(s.conn(ctx).Create(a).Error)
}

func (s *GormStore) AuthByID(ctx context.Context, id uint) (*domain.Auth, error) {
	var a domain.Auth
	if err := s.conn(ctx).First(&a, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *GormStore) AuthByName(ctx context.Context, name string) (*domain.Auth, error) {
	var a domain.Auth
	if err := s.conn(ctx).Where("name = ?", name).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *GormStore) LockAuth(ctx context.Context, id uint) (*domain.Auth, error) {
	var a domain.Auth
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *GormStore) SetVerified(ctx context.Context, id uint, verified bool) error {
	return affected(s.conn(ctx).Model(&domain.Auth{}).Where("id = ?", id).Update("verified", verified))
}

func (s *GormStore) SetPassword(ctx context.Context, id uint, hash string) error {
	return affected(s.conn(ctx).Model(&domain.Auth{}).Where("id = ?", id).Update("password_hash", hash))
}

func (s *GormStore) DeleteAuth(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&domain.Auth{}, id))
}

// ---------- users ----------

func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	return mapErr(s.conn(ctx).Omit(clause.Associations).Create(u).Error)
}

func (s *GormStore) users(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Joins("Auth")
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.users(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	u.SyncAuth()
	return &u, nil
}

func (s *GormStore) UserByAuth(ctx context.Context, authID uint) (*domain.User, error) {
	var u domain.User
	if err := s.users(ctx).Where("users.auth_id = ?", authID).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	u.SyncAuth()
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	if err := s.users(ctx).Order("users.id").Find(&out).Error; err != nil {
		return nil, mapErr(err)
	}
	for i := range out {
		out[i].SyncAuth()
	}
	return out, nil
}

var userColumns = []string{"email", "age", "description", "contacts", "socials", "updated_at"}

func (s *GormStore) SaveUser(ctx context.Context, u *domain.User) error {
	return affected(s.conn(ctx).Model(&domain.User{ID: u.ID}).Select(userColumns).Updates(u))
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&domain.User{}, id))
}

// ---------- causes ----------

func (s *GormStore) CreateCause(ctx context.Context, c *domain.Cause) error {
	return s.Tx(ctx, func(tx Store) error {
		db := tx.(*GormStore).conn(ctx)
		if err := db.Omit(clause.Associations).Create(c).Error; err != nil {
			return mapErr(err)
		}
		return tx.(*GormStore).insertLocations(ctx, c.ID, c.Locations)
	})
}

func (s *GormStore) insertLocations(ctx context.Context, causeID uint, locs []domain.Location) error {
	if len(locs) == 0 {
		return nil
	}
	for i := range locs {
		locs[i].ID = 0
		locs[i].CauseID = causeID
	}
	return mapErr(s.conn(ctx).Create(&locs).Error)
}

func (s *GormStore) causes(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Joins("Auth").Preload("Locations", func(db *gorm.DB) *gorm.DB {
		return db.Order("locations.id")
	})
}

func (s *GormStore) CauseByID(ctx context.Context, id uint) (*domain.Cause, error) {
	var c domain.Cause
	if err := s.causes(ctx).First(&c, id).Error; err != nil {
		return nil, mapErr(err)
	}
	c.SyncAuth()
	return &c, nil
}

func (s *GormStore) CauseByAuth(ctx context.Context, authID uint) (*domain.Cause, error) {
	var c domain.Cause
	if err := s.causes(ctx).Where("causes.auth_id = ?", authID).First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	c.SyncAuth()
	return &c, nil
}

func (s *GormStore) ListCauses(ctx context.Context, q CauseQuery) ([]domain.Cause, error) {
	db := s.causes(ctx)
	if q.Type != "" {
		db = db.Where("causes.type = ?", q.Type)
	}
	if q.OwnerUserID != 0 {
		db = db.Where("causes.owner_user_id = ?", q.OwnerUserID)
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		like := "%" + escapeLike(text) + "%"
		db = db.Where("(LOWER(causes.name) LIKE ? OR LOWER(causes.description) LIKE ? OR LOWER(causes.type) LIKE ?)",
			like, like, like)
	}
	out := []domain.Cause{}
	if err := db.Order("causes.id").Find(&out).Error; err != nil {
		return nil, mapErr(err)
	}
	for i := range out {
		out[i].SyncAuth()
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var causeColumns = []string{
	"name", "description", "logo", "email", "online", "contacts", "socials",
	"year_est", "age", "event_date", "event_time", "capacity", "updated_at",
}

func (s *GormStore) SaveCause(ctx context.Context, c *domain.Cause) error {
	return affected(s.conn(ctx).Model(&domain.Cause{ID: c.ID}).Select(causeColumns).Updates(c))
}

func (s *GormStore) ReplaceLocations(ctx context.Context, causeID uint, locs []domain.Location) error {
	return s.Tx(ctx, func(tx Store) error {
		g := tx.(*GormStore)
		if err := g.DeleteLocations(ctx, causeID); err != nil {
			return err
		}
		return g.insertLocations(ctx, causeID, locs)
	})
}

func (s *GormStore) DeleteLocations(ctx context.Context, causeID uint) error {
	return mapErr(s.conn(ctx).Where("cause_id = ?", causeID).Delete(&domain.Location{}).Error)
}

func (s *GormStore) DeleteCause(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&domain.Cause{}, id))
}

// ---------- ledger ----------

func (s *GormStore) CreateDonation(ctx context.Context, d *domain.Donation) error {
	return mapErr(s.conn(ctx).Create(d).Error)
}

func (s *GormStore) CreateVolunteer(ctx context.Context, v *domain.Volunteer) error {
	return mapErr(s.conn(ctx).Create(v).Error)
}

func (s *GormStore) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	return mapErr(s.conn(ctx).Create(f).Error)
}

func (s *GormStore) ledger(ctx context.Context, q LedgerQuery) *gorm.DB {
	db := s.conn(ctx)
	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.CauseID != 0 {
		db = db.Where("cause_id = ?", q.CauseID)
	}
	return db
}

func (s *GormStore) Donations(ctx context.Context, q LedgerQuery) ([]domain.Donation, error) {
	out := []domain.Donation{}
	return out, mapErr(s.ledger(ctx, q).Order("id").Find(&out).Error)
}

func (s *GormStore) Volunteers(ctx context.Context, q LedgerQuery) ([]domain.Volunteer, error) {
	out := []domain.Volunteer{}
	return out, mapErr(s.ledger(ctx, q).Order("id").Find(&out).Error)
}

func (s *GormStore) Feedbacks(ctx context.Context, q LedgerQuery) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	return out, mapErr(s.ledger(ctx, q).Order("id").Find(&out).Error)
}

func entryModel(kind domain.EntryKind) (any, error) {
	switch kind {
	case domain.KindDonation:
		return &domain.Donation{}, nil
	case domain.KindVolunteer:
		return &domain.Volunteer{}, nil
	case domain.KindFeedback:
		return &domain.Feedback{}, nil
	}
	return nil, fmt.Errorf("repo: unknown entry kind %q", kind)
}

func (s *GormStore) EntryOwner(ctx context.Context, kind domain.EntryKind, id uint) (uint, error) {
	m, err := entryModel(kind)
	if err != nil {
		return 0, err
	}
	var row struct{ UserID uint }
	res := s.conn(ctx).Model(m).Select("user_id").Where("id = ?", id).Limit(1).Scan(&row)
	if err := affected(res); err != nil {
		return 0, err
	}
	return row.UserID, nil
}

func (s *GormStore) DeleteEntry(ctx context.Context, kind domain.EntryKind, id uint) error {
	m, err := entryModel(kind)
	if err != nil {
		return err
	}
	return affected(s.conn(ctx).Delete(m, id))
}

func (s *GormStore) DeleteEntries(ctx context.Context, q LedgerQuery) error {
	if q.empty() {
		return fmt.Errorf("repo: refusing unscoped ledger delete")
	}
	for _, m := range []any{&domain.Donation{}, &domain.Volunteer{}, &domain.Feedback{}} {
		if err := s.ledger(ctx, q).Delete(m).Error; err != nil {
			return mapErr(err)
		}
	}
	return nil
}
