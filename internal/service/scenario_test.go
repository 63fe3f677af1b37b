package service

import (
	"sync"

	"causebridge/internal/domain"
)

// A full pass through the directory: register, verify, engage, dashboards,
// unverify, cascade delete.
func (s *ServiceSuite) TestDirectoryLifecycle() {
	donor := s.register(RegisterInput{Name: "sana", Role: "user", Email: "sana@example.org"})
	_, err := s.svc.Identity.Authenticate(s.ctx, "sana", testPassword)
	s.requireKind(err, domain.KindPermission)
	s.verify(donor.AuthID)
	donorSess := s.login("sana")

	ownerRes, owner := s.verifiedUser("omar")
	c := s.ngo(owner, "Edhi Hope")
	s.NotContains(s.publicIDs(), c.CauseID)
	s.verify(c.AuthID)
	s.Contains(s.publicIDs(), c.CauseID)

	_, err = s.svc.Ledger.RecordDonation(s.ctx, donorSess, DonationInput{UserID: donor.UserID, CauseID: c.CauseID, Amount: 50})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordFeedback(s.ctx, donorSess, FeedbackInput{UserID: donor.UserID, CauseID: c.CauseID, Rating: 5, Comment: "fast"})
	s.Require().NoError(err)

	causeSess := s.causeSession(c)
	dash, err := s.svc.Dashboard.Dashboard(s.ctx, causeSess)
	s.Require().NoError(err)
	s.InDelta(50.0, dash.Cause.Totals.DonationSum, 1e-9)

	_, err = s.svc.Verification.Unverify(s.ctx, s.admin, c.AuthID)
	s.Require().NoError(err)
	s.NotContains(s.publicIDs(), c.CauseID)
	_, err = s.svc.Ledger.RecordDonation(s.ctx, donorSess, DonationInput{UserID: donor.UserID, CauseID: c.CauseID, Amount: 1})
	s.requireKind(err, domain.KindPermission)

	s.Require().NoError(s.svc.Registry.DeleteUser(s.ctx, owner, ownerRes.UserID))
	_, err = s.svc.Registry.CauseByID(s.ctx, s.admin, c.CauseID)
	s.requireKind(err, domain.KindNotFound)

	mine, err := s.svc.Ledger.ListByUser(s.ctx, donorSess, donor.UserID)
	s.Require().NoError(err)
	s.Empty(mine.Donations)
	s.Empty(mine.Feedbacks)
}

func (s *ServiceSuite) TestVerifyRacesDelete() {
	_, owner := s.verifiedUser("owner")
	for i := 0; i < 20; i++ {
		c := s.ngo(owner, "Race "+string(rune('A'+i)))

		var wg sync.WaitGroup
		var verr, derr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, verr = s.svc.Verification.Verify(s.ctx, s.admin, c.AuthID)
		}()
		go func() {
			defer wg.Done()
			derr = s.svc.Registry.DeleteCause(s.ctx, s.admin, c.CauseID)
		}()
		wg.Wait()

		s.Require().NoError(derr)
		if verr != nil {
			s.requireKind(verr, domain.KindNotFound)
		}
		_, err := s.store.AuthByID(s.ctx, c.AuthID)
		s.Error(err)
		s.NotContains(s.publicIDs(), c.CauseID)
	}
}
