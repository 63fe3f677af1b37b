package service

import (
	"time"

	"causebridge/internal/domain"
)

func (s *ServiceSuite) TestRecordDonation() {
	u, sess := s.verifiedUser("giver")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Food Bank")
	s.verify(c.AuthID)

	_, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 0})
	s.requireKind(err, domain.KindValidation)
	_, err = s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 5, Date: "yesterday"})
	s.requireKind(err, domain.KindValidation)

	d, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 50, Date: "2026-03-01"})
	s.Require().NoError(err)
	s.NotZero(d.ID)
	s.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d.Date)

	got, err := s.svc.Ledger.ListByUser(s.ctx, sess, u.UserID, domain.KindDonation)
	s.Require().NoError(err)
	s.Require().Len(got.Donations, 1)
	s.InDelta(50.0, got.Donations[0].Amount, 1e-9)
	s.Empty(got.Volunteers)
}

func (s *ServiceSuite) TestRecordDefaultsDateToToday() {
	u, sess := s.verifiedUser("helper")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Shelter")
	s.verify(c.AuthID)

	v, err := s.svc.Ledger.RecordVolunteer(s.ctx, sess, VolunteerInput{UserID: u.UserID, CauseID: c.CauseID, Hours: 2.5})
	s.Require().NoError(err)
	s.Equal(time.Now().UTC().Format("2006-01-02"), v.Date.Format("2006-01-02"))

	_, err = s.svc.Ledger.RecordVolunteer(s.ctx, sess, VolunteerInput{UserID: u.UserID, CauseID: c.CauseID, Hours: -1})
	s.requireKind(err, domain.KindValidation)
}

func (s *ServiceSuite) TestFeedbackRatingRange() {
	u, sess := s.verifiedUser("critic")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Library")
	s.verify(c.AuthID)

	for _, r := range []int{0, 6} {
		_, err := s.svc.Ledger.RecordFeedback(s.ctx, sess, FeedbackInput{UserID: u.UserID, CauseID: c.CauseID, Rating: r})
		s.requireKind(err, domain.KindValidation)
	}
	f, err := s.svc.Ledger.RecordFeedback(s.ctx, sess, FeedbackInput{UserID: u.UserID, CauseID: c.CauseID, Rating: 4, Comment: "  kind staff "})
	s.Require().NoError(err)
	s.Equal("kind staff", f.Comment)
}

func (s *ServiceSuite) TestUnverifiedCauseRejectsEngagement() {
	u, sess := s.verifiedUser("eager")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Pending")

	_, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 5})
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Ledger.RecordVolunteer(s.ctx, sess, VolunteerInput{UserID: u.UserID, CauseID: c.CauseID, Hours: 1})
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Ledger.RecordFeedback(s.ctx, sess, FeedbackInput{UserID: u.UserID, CauseID: c.CauseID, Rating: 3})
	s.requireKind(err, domain.KindPermission)

	_, err = s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: 777, Amount: 5})
	s.requireKind(err, domain.KindNotFound)
}

func (s *ServiceSuite) TestRecordOnlyForSelf() {
	u, _ := s.verifiedUser("victim")
	_, other := s.verifiedUser("other")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Target")
	s.verify(c.AuthID)

	in := DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 5}
	_, err := s.svc.Ledger.RecordDonation(s.ctx, other, in)
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Ledger.RecordDonation(s.ctx, s.admin, in)
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Ledger.RecordDonation(s.ctx, nil, in)
	s.requireKind(err, domain.KindAuth)
}

func (s *ServiceSuite) TestDeleteEntry() {
	u, sess := s.verifiedUser("giver")
	_, other := s.verifiedUser("other")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Clinic")
	s.verify(c.AuthID)

	d1, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 1})
	s.Require().NoError(err)
	d2, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 2})
	s.Require().NoError(err)

	s.requireKind(s.svc.Ledger.DeleteEntry(s.ctx, other, domain.KindDonation, d1.ID), domain.KindPermission)
	s.requireKind(s.svc.Ledger.DeleteEntry(s.ctx, sess, domain.KindFeedback, d1.ID), domain.KindNotFound)
	s.Require().NoError(s.svc.Ledger.DeleteEntry(s.ctx, sess, domain.KindDonation, d1.ID))
	s.Require().NoError(s.svc.Ledger.DeleteEntry(s.ctx, s.admin, domain.KindDonation, d2.ID))
	s.requireKind(s.svc.Ledger.DeleteEntry(s.ctx, sess, domain.KindDonation, d2.ID), domain.KindNotFound)

	left, err := s.svc.Ledger.ListByUser(s.ctx, sess, u.UserID)
	s.Require().NoError(err)
	s.Empty(left.Donations)
}

func (s *ServiceSuite) TestListByCausePermissions() {
	u, sess := s.verifiedUser("giver")
	_, owner := s.verifiedUser("owner")
	c := s.ngo(owner, "Hall")
	s.verify(c.AuthID)
	causeSess := s.causeSession(c)

	_, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 3})
	s.Require().NoError(err)

	for _, who := range []*domain.Session{owner, causeSess, s.admin} {
		e, err := s.svc.Ledger.ListByCause(s.ctx, who, c.CauseID)
		s.Require().NoError(err)
		s.Len(e.Donations, 1)
	}
	_, err = s.svc.Ledger.ListByCause(s.ctx, sess, c.CauseID)
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Ledger.ListByCause(s.ctx, nil, c.CauseID)
	s.requireKind(err, domain.KindAuth)
	_, err = s.svc.Ledger.ListByUser(s.ctx, owner, u.UserID)
	s.requireKind(err, domain.KindPermission)
}
