package service

import (
	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

func (s *ServiceSuite) TestPublicCausesFollowVisibility() {
	_, owner := s.verifiedUser("owner")
	a := s.ngo(owner, "Alpha Relief")
	b := s.ngo(owner, "Beta Shelter")
	s.Empty(s.publicIDs())

	s.verify(a.AuthID)
	s.Equal([]uint{a.CauseID}, s.publicIDs())
	s.verify(b.AuthID)
	s.Equal([]uint{a.CauseID, b.CauseID}, s.publicIDs())

	_, err := s.svc.Verification.Unverify(s.ctx, s.admin, a.AuthID)
	s.Require().NoError(err)
	s.Equal([]uint{b.CauseID}, s.publicIDs())
}

func (s *ServiceSuite) TestPublicCausesFilters() {
	_, owner := s.verifiedUser("owner")
	ngo := s.ngo(owner, "River Trust")
	ev, err := s.svc.Identity.Register(s.ctx, owner, RegisterInput{
		Name: "River Cleanup", Password: testPassword, Role: "event", Date: "2026-11-02",
	})
	s.Require().NoError(err)
	s.verify(ngo.AuthID)
	s.verify(ev.AuthID)

	events, err := s.svc.Registry.PublicCauses(s.ctx, CauseFilter{Type: "event"})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(ev.CauseID, events[0].ID)

	byText, err := s.svc.Registry.PublicCauses(s.ctx, CauseFilter{Q: "TRUST"})
	s.Require().NoError(err)
	s.Require().Len(byText, 1)
	s.Equal(ngo.CauseID, byText[0].ID)

	_, err = s.svc.Registry.PublicCauses(s.ctx, CauseFilter{Type: "club"})
	s.requireKind(err, domain.KindValidation)
}

func (s *ServiceSuite) TestCauseByIDHidesUnverified() {
	_, owner := s.verifiedUser("owner")
	_, stranger := s.verifiedUser("stranger")
	c := s.ngo(owner, "Quiet")
	causeSess := s.causeSession(c)

	_, err := s.svc.Registry.CauseByID(s.ctx, nil, c.CauseID)
	s.requireKind(err, domain.KindNotFound)
	_, unknown := s.svc.Registry.CauseByID(s.ctx, nil, 4040)
	s.requireKind(unknown, domain.KindNotFound)
	s.Equal(unknown.Error(), err.Error())

	_, err = s.svc.Registry.CauseByID(s.ctx, stranger, c.CauseID)
	s.requireKind(err, domain.KindNotFound)

	for _, who := range []*domain.Session{owner, s.admin, causeSess} {
		got, err := s.svc.Registry.CauseByID(s.ctx, who, c.CauseID)
		s.Require().NoError(err)
		s.False(got.Verified)
	}
}

// causeSession verifies a cause account and logs it in.
func (s *ServiceSuite) causeSession(c *RegisterResult) *domain.Session {
	a, err := s.store.AuthByID(s.ctx, c.AuthID)
	s.Require().NoError(err)
	wasVerified := a.Verified
	s.verify(c.AuthID)
	sess := s.login(a.Name)
	if !wasVerified {
		_, err = s.svc.Verification.Unverify(s.ctx, s.admin, c.AuthID)
		s.Require().NoError(err)
	}
	return sess
}

func (s *ServiceSuite) TestUserByIDProjection() {
	pending := s.register(RegisterInput{Name: "pending", Role: "user", Email: "p@example.org"})
	shown, shownSess := s.verifiedUser("shown")
	_, viewer := s.verifiedUser("viewer")

	_, err := s.svc.Registry.UserByID(s.ctx, viewer, pending.UserID)
	s.requireKind(err, domain.KindNotFound)

	pub, err := s.svc.Registry.UserByID(s.ctx, viewer, shown.UserID)
	s.Require().NoError(err)
	s.Empty(pub.Email)
	s.Equal("shown", pub.Name)

	self, err := s.svc.Registry.UserByID(s.ctx, shownSess, shown.UserID)
	s.Require().NoError(err)
	s.Equal("shown@example.org", self.Email)

	full, err := s.svc.Registry.UserByID(s.ctx, s.admin, pending.UserID)
	s.Require().NoError(err)
	s.Equal("p@example.org", full.Email)
}

func (s *ServiceSuite) TestUpdateUser() {
	u, sess := s.verifiedUser("edit")
	_, other := s.verifiedUser("other")

	desc := "likes trees"
	contacts := []string{" +92 300 ", ""}
	got, err := s.svc.Registry.UpdateUser(s.ctx, sess, u.UserID, UserPatch{Description: &desc, Contacts: &contacts})
	s.Require().NoError(err)
	s.Equal("likes trees", got.Description)
	s.Equal([]string{"+92 300"}, []string(got.Contacts))

	_, err = s.svc.Registry.UpdateUser(s.ctx, other, u.UserID, UserPatch{Description: &desc})
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Registry.UpdateUser(s.ctx, nil, u.UserID, UserPatch{Description: &desc})
	s.requireKind(err, domain.KindAuth)

	bad := "not-an-email"
	_, err = s.svc.Registry.UpdateUser(s.ctx, s.admin, u.UserID, UserPatch{Email: &bad})
	s.requireKind(err, domain.KindValidation)
}

func (s *ServiceSuite) TestUpdateCause() {
	_, owner := s.verifiedUser("owner")
	_, other := s.verifiedUser("other")
	c := s.ngo(owner, "Orchard")
	s.verify(c.AuthID)

	name := "Orchard Trust"
	year := 2001
	locs := []LocationInput{{Latitude: 1, Longitude: 1, City: "A"}, {Latitude: 2, Longitude: 2, City: "B"}}
	got, err := s.svc.Registry.UpdateCause(s.ctx, owner, c.CauseID, CausePatch{Name: &name, YearEst: &year, Locations: &locs})
	s.Require().NoError(err)
	s.Equal("Orchard Trust", got.Name)
	s.Equal(2001, *got.YearEst)
	s.Require().Len(got.Locations, 2)
	s.Equal("B", got.Locations[1].City)

	date := "2026-01-01"
	_, err = s.svc.Registry.UpdateCause(s.ctx, owner, c.CauseID, CausePatch{Date: &date})
	s.requireKind(err, domain.KindValidation)

	_, err = s.svc.Registry.UpdateCause(s.ctx, other, c.CauseID, CausePatch{Name: &name})
	s.requireKind(err, domain.KindPermission)

	stored, err := s.store.CauseByID(s.ctx, c.CauseID)
	s.Require().NoError(err)
	s.True(stored.Verified)
	s.Equal(domain.CauseNGO, stored.Type)
}

func (s *ServiceSuite) TestDeleteUserCascades() {
	u, owner := s.verifiedUser("owner")
	donor, donorSess := s.verifiedUser("donor")
	c := s.ngo(owner, "Cascade")
	s.verify(c.AuthID)

	_, err := s.svc.Ledger.RecordDonation(s.ctx, donorSess, DonationInput{UserID: donor.UserID, CauseID: c.CauseID, Amount: 10})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordDonation(s.ctx, owner, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 5})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordFeedback(s.ctx, donorSess, FeedbackInput{UserID: donor.UserID, CauseID: c.CauseID, Rating: 5})
	s.Require().NoError(err)

	s.requireKind(s.svc.Registry.DeleteUser(s.ctx, donorSess, u.UserID), domain.KindPermission)

	s.Require().NoError(s.svc.Registry.DeleteUser(s.ctx, s.admin, u.UserID))

	_, err = s.store.AuthByID(s.ctx, u.AuthID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.store.AuthByID(s.ctx, c.AuthID)
	s.ErrorIs(err, repo.ErrNotFound)
	_, err = s.store.CauseByID(s.ctx, c.CauseID)
	s.ErrorIs(err, repo.ErrNotFound)

	for _, q := range []repo.LedgerQuery{{CauseID: c.CauseID}, {UserID: u.UserID}} {
		d, err := s.store.Donations(s.ctx, q)
		s.Require().NoError(err)
		s.Empty(d)
		f, err := s.store.Feedbacks(s.ctx, q)
		s.Require().NoError(err)
		s.Empty(f)
	}
	s.NotContains(s.publicIDs(), c.CauseID)

	// the donor's account and profile survive
	_, err = s.store.UserByID(s.ctx, donor.UserID)
	s.NoError(err)
}

func (s *ServiceSuite) TestDeleteCausePermissions() {
	_, owner := s.verifiedUser("owner")
	_, other := s.verifiedUser("other")
	c := s.ngo(owner, "Doomed")
	s.verify(c.AuthID)

	s.requireKind(s.svc.Registry.DeleteCause(s.ctx, other, c.CauseID), domain.KindPermission)
	s.requireKind(s.svc.Registry.DeleteCause(s.ctx, nil, c.CauseID), domain.KindAuth)
	s.Require().NoError(s.svc.Registry.DeleteCause(s.ctx, owner, c.CauseID))
	s.requireKind(s.svc.Registry.DeleteCause(s.ctx, owner, c.CauseID), domain.KindNotFound)
}

func (s *ServiceSuite) TestOwnedCausesAndAdminListings() {
	u, owner := s.verifiedUser("owner")
	_, other := s.verifiedUser("other")
	s.ngo(owner, "One")
	s.ngo(owner, "Two")

	owned, err := s.svc.Registry.OwnedCauses(s.ctx, owner, u.UserID)
	s.Require().NoError(err)
	s.Len(owned, 2)

	_, err = s.svc.Registry.OwnedCauses(s.ctx, other, u.UserID)
	s.requireKind(err, domain.KindPermission)

	_, err = s.svc.Registry.ListUsers(s.ctx, owner)
	s.requireKind(err, domain.KindPermission)
	users, err := s.svc.Registry.ListUsers(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(users, 2)

	detail, err := s.svc.Registry.AdminUser(s.ctx, s.admin, u.UserID)
	s.Require().NoError(err)
	s.Equal("owner@example.org", detail.User.Email)
	s.Len(detail.Causes, 2)
}
