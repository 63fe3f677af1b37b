package service

import (
	"context"
	"sync"

	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

// lockRecorder notes every Auth row lock taken inside a Tx.
type lockRecorder struct {
	repo.Store
	mu    *sync.Mutex
	locks *[]uint
}

func newLockRecorder(st repo.Store) *lockRecorder {
	return &lockRecorder{Store: st, mu: &sync.Mutex{}, locks: &[]uint{}}
}

func (r *lockRecorder) Tx(ctx context.Context, fn func(tx repo.Store) error) error {
	return r.Store.Tx(ctx, func(tx repo.Store) error {
		return fn(&lockRecorder{Store: tx, mu: r.mu, locks: r.locks})
	})
}

func (r *lockRecorder) LockAuth(ctx context.Context, id uint) (*domain.Auth, error) {
	r.mu.Lock()
	*r.locks = append(*r.locks, id)
	r.mu.Unlock()
	return r.Store.LockAuth(ctx, id)
}

func (r *lockRecorder) take() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := *r.locks
	*r.locks = []uint{}
	return out
}

// spied returns services over the suite's store that record Auth locks.
func (s *ServiceSuite) spied() (*Services, *lockRecorder) {
	rec := newLockRecorder(s.store)
	return New(Deps{Store: rec, MinPasswordLen: 8}), rec
}

func (s *ServiceSuite) TestRecordLocksUserBeforeCause() {
	donor, donorSess := s.verifiedUser("donor")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Lockstep")
	s.verify(c.AuthID)

	svc, rec := s.spied()
	_, err := svc.Ledger.RecordDonation(s.ctx, donorSess, DonationInput{UserID: donor.UserID, CauseID: c.CauseID, Amount: 1})
	s.Require().NoError(err)
	s.Equal([]uint{donor.AuthID, c.AuthID}, rec.take())

	_, err = svc.Ledger.RecordFeedback(s.ctx, donorSess, FeedbackInput{UserID: donor.UserID, CauseID: c.CauseID, Rating: 3})
	s.Require().NoError(err)
	s.Equal([]uint{donor.AuthID, c.AuthID}, rec.take())
}

func (s *ServiceSuite) TestRecordRefusesUserDeletedAfterRead() {
	donor, donorSess := s.verifiedUser("donor")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Gone Soon")
	s.verify(c.AuthID)

	// the user row is still readable but its Auth is gone, as when a
	// cascade commits while the writer waits on the lock
	s.Require().NoError(s.store.DeleteAuth(s.ctx, donor.AuthID))
	_, err := s.svc.Ledger.RecordDonation(s.ctx, donorSess, DonationInput{UserID: donor.UserID, CauseID: c.CauseID, Amount: 1})
	s.requireKind(err, domain.KindNotFound)

	d, err := s.store.Donations(s.ctx, repo.LedgerQuery{CauseID: c.CauseID})
	s.Require().NoError(err)
	s.Empty(d)
}

func (s *ServiceSuite) TestRegisterCauseLocksOwner() {
	owner, ownerSess := s.verifiedUser("owner")
	svc, rec := s.spied()

	_, err := svc.Identity.Register(s.ctx, ownerSess, RegisterInput{Name: "Locked In", Password: testPassword, Role: "ngo"})
	s.Require().NoError(err)
	s.Equal([]uint{owner.AuthID}, rec.take())
}

func (s *ServiceSuite) TestRegisterCauseChecksLockedOwner() {
	owner, ownerSess := s.verifiedUser("owner")
	s.Require().NoError(s.store.DeleteAuth(s.ctx, owner.AuthID))

	_, err := s.svc.Identity.Register(s.ctx, ownerSess, RegisterInput{Name: "Orphan", Password: testPassword, Role: "ngo"})
	s.requireKind(err, domain.KindValidation)
	causes, err := s.store.ListCauses(s.ctx, repo.CauseQuery{OwnerUserID: owner.UserID})
	s.Require().NoError(err)
	s.Empty(causes)
}

func (s *ServiceSuite) TestDeleteUserLocksUserBeforeCauses() {
	owner, ownerSess := s.verifiedUser("owner")
	a := s.ngo(ownerSess, "First")
	b := s.ngo(ownerSess, "Second")

	svc, rec := s.spied()
	s.Require().NoError(svc.Registry.DeleteUser(s.ctx, s.admin, owner.UserID))
	s.Equal([]uint{owner.AuthID, a.AuthID, b.AuthID}, rec.take())
}
