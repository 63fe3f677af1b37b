package repo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"causebridge/internal/domain"
)

type memData struct {
	seq        map[string]uint
	auths      map[uint]domain.Auth
	users      map[uint]domain.User
	causes     map[uint]domain.Cause
	locations  map[uint]domain.Location
	donations  map[uint]domain.Donation
	volunteers map[uint]domain.Volunteer
	feedbacks  map[uint]domain.Feedback
}

func newMemData() *memData {
	return &memData{
		seq:        map[string]uint{},
		auths:      map[uint]domain.Auth{},
		users:      map[uint]domain.User{},
		causes:     map[uint]domain.Cause{},
		locations:  map[uint]domain.Location{},
		donations:  map[uint]domain.Donation{},
		volunteers: map[uint]domain.Volunteer{},
		feedbacks:  map[uint]domain.Feedback{},
	}
}

// clone is shallow per row; rows are replaced on write, never mutated in place.
func (d *memData) clone() *memData {
	return &memData{
		seq:        maps.Clone(d.seq),
		auths:      maps.Clone(d.auths),
		users:      maps.Clone(d.users),
		causes:     maps.Clone(d.causes),
		locations:  maps.Clone(d.locations),
		donations:  maps.Clone(d.donations),
		volunteers: maps.Clone(d.volunteers),
		feedbacks:  maps.Clone(d.feedbacks),
	}
}

func (d *memData) next(table string) uint {
	d.seq[table]++
	return d.seq[table]
}

type memState struct {
	mu sync.Mutex
	d  *memData
}

// MemoryStore keeps everything in maps behind one mutex. A Tx holds the mutex
// for its whole duration and restores a snapshot when fn fails.
type MemoryStore struct {
	st   *memState
	inTx bool
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: &memState{d: newMemData()}, now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) lock(ctx context.Context) (*memData, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if m.inTx {
		return m.st.d, func() {}, nil
	}
	m.st.mu.Lock()
	return m.st.d, m.st.mu.Unlock, nil
}

func (m *MemoryStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	snap := m.st.d.clone()
	if err := fn(&MemoryStore{st: m.st, inTx: true, now: m.now}); err != nil {
		m.st.d = snap
		return err
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	_, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	unlock()
	return nil
}

// ---------- auth ----------

func (m *MemoryStore) CreateAuth(ctx context.Context, a *domain.Auth) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	for _, x := range d.auths {
		if x.Name == a.Name {
			return fmt.Errorf("%w: auth name %q", ErrConflict, a.Name)
		}
	}
	a.ID = d.next("auth")
	now := m.now()
	a.CreatedAt, a.UpdatedAt = now, now
	d.auths[a.ID] = *a
	return nil
}

func (m *MemoryStore) AuthByID(ctx context.Context, id uint) (*domain.Auth, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	a, ok := d.auths[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) AuthByName(ctx context.Context, name string) (*domain.Auth, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, a := range d.auths {
		if a.Name == name {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) LockAuth(ctx context.Context, id uint) (*domain.Auth, error) {
	return m.AuthByID(ctx, id)
}

func (m *MemoryStore) SetVerified(ctx context.Context, id uint, verified bool) error {
	return m.updateAuth(ctx, id, func(a *domain.Auth) { a.Verified = verified })
}

func (m *MemoryStore) SetPassword(ctx context.Context, id uint, hash string) error {
	return m.updateAuth(ctx, id, func(a *domain.Auth) { a.PasswordHash = hash })
}

func (m *MemoryStore) updateAuth(ctx context.Context, id uint, fn func(*domain.Auth)) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	a, ok := d.auths[id]
	if !ok {
		return ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = m.now()
	d.auths[id] = a
	return nil
}

func (m *MemoryStore) DeleteAuth(ctx context.Context, id uint) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.auths[id]; !ok {
		return ErrNotFound
	}
	delete(d.auths, id)
	return nil
}

// ---------- users ----------

func (m *MemoryStore) CreateUser(ctx context.Context, u *domain.User) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.auths[u.AuthID]; !ok {
		return fmt.Errorf("%w: auth %d missing", ErrConflict, u.AuthID)
	}
	for _, x := range d.users {
		if x.AuthID == u.AuthID {
			return fmt.Errorf("%w: auth %d already has a user", ErrConflict, u.AuthID)
		}
	}
	u.ID = d.next("user")
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	row := *u
	row.Auth = nil
	d.users[u.ID] = row
	return nil
}

func (d *memData) loadUser(u domain.User) *domain.User {
	if a, ok := d.auths[u.AuthID]; ok {
		u.Auth = &a
	}
	u.SyncAuth()
	return &u
}

func (m *MemoryStore) UserByID(ctx context.Context, id uint) (*domain.User, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.loadUser(u), nil
}

func (m *MemoryStore) UserByAuth(ctx context.Context, authID uint) (*domain.User, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range d.users {
		if u.AuthID == authID {
			return d.loadUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]domain.User, 0, len(d.users))
	for _, id := range sortedKeys(d.users) {
		out = append(out, *d.loadUser(d.users[id]))
	}
	return out, nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, u *domain.User) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	old, ok := d.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	row := *u
	row.Auth = nil
	row.AuthID = old.AuthID
	row.CreatedAt = old.CreatedAt
	row.UpdatedAt = m.now()
	d.users[u.ID] = row
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id uint) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.users[id]; !ok {
		return ErrNotFound
	}
	delete(d.users, id)
	return nil
}

// ---------- causes ----------

func (m *MemoryStore) CreateCause(ctx context.Context, c *domain.Cause) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.auths[c.AuthID]; !ok {
		return fmt.Errorf("%w: auth %d missing", ErrConflict, c.AuthID)
	}
	for _, x := range d.causes {
		if x.AuthID == c.AuthID {
			return fmt.Errorf("%w: auth %d already has a cause", ErrConflict, c.AuthID)
		}
	}
	c.ID = d.next("cause")
	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	d.putLocations(c.ID, c.Locations)
	row := *c
	row.Auth, row.Locations = nil, nil
	d.causes[c.ID] = row
	return nil
}

func (d *memData) putLocations(causeID uint, locs []domain.Location) {
	for i := range locs {
		locs[i].ID = d.next("location")
		locs[i].CauseID = causeID
		d.locations[locs[i].ID] = locs[i]
	}
}

func (d *memData) loadCause(c domain.Cause) *domain.Cause {
	if a, ok := d.auths[c.AuthID]; ok {
		c.Auth = &a
	}
	c.Locations = []domain.Location{}
	for _, id := range sortedKeys(d.locations) {
		if l := d.locations[id]; l.CauseID == c.ID {
			c.Locations = append(c.Locations, l)
		}
	}
	c.SyncAuth()
	return &c
}

func (m *MemoryStore) CauseByID(ctx context.Context, id uint) (*domain.Cause, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	c, ok := d.causes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.loadCause(c), nil
}

func (m *MemoryStore) CauseByAuth(ctx context.Context, authID uint) (*domain.Cause, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, c := range d.causes {
		if c.AuthID == authID {
			return d.loadCause(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListCauses(ctx context.Context, q CauseQuery) ([]domain.Cause, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := []domain.Cause{}
	for _, id := range sortedKeys(d.causes) {
		c := d.causes[id]
		if q.Type != "" && c.Type != q.Type {
			continue
		}
		if q.OwnerUserID != 0 && c.OwnerUserID != q.OwnerUserID {
			continue
		}
		if text != "" && !containsFold(text, c.Name, c.Description, string(c.Type)) {
			continue
		}
		out = append(out, *d.loadCause(c))
	}
	return out, nil
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) SaveCause(ctx context.Context, c *domain.Cause) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	old, ok := d.causes[c.ID]
	if !ok {
		return ErrNotFound
	}
	row := *c
	row.Auth, row.Locations = nil, nil
	row.AuthID, row.OwnerUserID, row.Type = old.AuthID, old.OwnerUserID, old.Type
	row.CreatedAt = old.CreatedAt
	row.UpdatedAt = m.now()
	d.causes[c.ID] = row
	return nil
}

func (m *MemoryStore) ReplaceLocations(ctx context.Context, causeID uint, locs []domain.Location) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.causes[causeID]; !ok {
		return ErrNotFound
	}
	d.dropLocations(causeID)
	d.putLocations(causeID, locs)
	return nil
}

func (d *memData) dropLocations(causeID uint) {
	maps.DeleteFunc(d.locations, func(_ uint, l domain.Location) bool { return l.CauseID == causeID })
}

func (m *MemoryStore) DeleteLocations(ctx context.Context, causeID uint) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	d.dropLocations(causeID)
	return nil
}

func (m *MemoryStore) DeleteCause(ctx context.Context, id uint) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.causes[id]; !ok {
		return ErrNotFound
	}
	for _, l := range d.locations {
		if l.CauseID == id {
			return fmt.Errorf("%w: cause %d still has locations", ErrConflict, id)
		}
	}
	delete(d.causes, id)
	return nil
}

// ---------- ledger ----------

func (m *MemoryStore) CreateDonation(ctx context.Context, x *domain.Donation) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	x.ID = d.next("donation")
	x.CreatedAt = m.now()
	d.donations[x.ID] = *x
	return nil
}

func (m *MemoryStore) CreateVolunteer(ctx context.Context, x *domain.Volunteer) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	x.ID = d.next("volunteer")
	x.CreatedAt = m.now()
	d.volunteers[x.ID] = *x
	return nil
}

func (m *MemoryStore) CreateFeedback(ctx context.Context, x *domain.Feedback) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	x.ID = d.next("feedback")
	x.CreatedAt = m.now()
	d.feedbacks[x.ID] = *x
	return nil
}

func (q LedgerQuery) match(userID, causeID uint) bool {
	return (q.UserID == 0 || q.UserID == userID) && (q.CauseID == 0 || q.CauseID == causeID)
}

func (m *MemoryStore) Donations(ctx context.Context, q LedgerQuery) ([]domain.Donation, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return filterRows(d.donations, q, func(x domain.Donation) (uint, uint) { return x.UserID, x.CauseID }), nil
}

func (m *MemoryStore) Volunteers(ctx context.Context, q LedgerQuery) ([]domain.Volunteer, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return filterRows(d.volunteers, q, func(x domain.Volunteer) (uint, uint) { return x.UserID, x.CauseID }), nil
}

func (m *MemoryStore) Feedbacks(ctx context.Context, q LedgerQuery) ([]domain.Feedback, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return filterRows(d.feedbacks, q, func(x domain.Feedback) (uint, uint) { return x.UserID, x.CauseID }), nil
}

func filterRows[T any](rows map[uint]T, q LedgerQuery, refs func(T) (uint, uint)) []T {
	out := []T{}
	for _, id := range sortedKeys(rows) {
		if u, c := refs(rows[id]); q.match(u, c) {
			out = append(out, rows[id])
		}
	}
	return out
}

func (m *MemoryStore) EntryOwner(ctx context.Context, kind domain.EntryKind, id uint) (uint, error) {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	var (
		owner uint
		ok    bool
	)
	switch kind {
	case domain.KindDonation:
		var x domain.Donation
		x, ok = d.donations[id]
		owner = x.UserID
	case domain.KindVolunteer:
		var x domain.Volunteer
		x, ok = d.volunteers[id]
		owner = x.UserID
	case domain.KindFeedback:
		var x domain.Feedback
		x, ok = d.feedbacks[id]
		owner = x.UserID
	}
	if !ok {
		return 0, ErrNotFound
	}
	return owner, nil
}

func (m *MemoryStore) DeleteEntry(ctx context.Context, kind domain.EntryKind, id uint) error {
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	var ok bool
	switch kind {
	case domain.KindDonation:
		_, ok = d.donations[id]
		delete(d.donations, id)
	case domain.KindVolunteer:
		_, ok = d.volunteers[id]
		delete(d.volunteers, id)
	case domain.KindFeedback:
		_, ok = d.feedbacks[id]
		delete(d.feedbacks, id)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) DeleteEntries(ctx context.Context, q LedgerQuery) error {
	if q.empty() {
		return fmt.Errorf("repo: refusing unscoped ledger delete")
	}
	d, unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	maps.DeleteFunc(d.donations, func(_ uint, x domain.Donation) bool { return q.match(x.UserID, x.CauseID) })
	maps.DeleteFunc(d.volunteers, func(_ uint, x domain.Volunteer) bool { return q.match(x.UserID, x.CauseID) })
	maps.DeleteFunc(d.feedbacks, func(_ uint, x domain.Feedback) bool { return q.match(x.UserID, x.CauseID) })
	return nil
}

func sortedKeys[V any](m map[uint]V) []uint {
	return slices.Sorted(maps.Keys(m))
}
