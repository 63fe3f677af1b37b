package service

import (
	"time"

	"causebridge/internal/domain"
)

func (s *ServiceSuite) TestDashboardNeedsSession() {
	_, err := s.svc.Dashboard.Dashboard(s.ctx, nil)
	s.requireKind(err, domain.KindPermission)

	expired := *s.admin
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	_, err = s.svc.Dashboard.Dashboard(s.ctx, &expired)
	s.requireKind(err, domain.KindAuth)
}

func (s *ServiceSuite) TestAdminDashboardPartitions() {
	s.register(RegisterInput{Name: "pending", Role: "user"})
	_, owner := s.verifiedUser("owner")
	a := s.ngo(owner, "Seen")
	s.ngo(owner, "Unseen")
	s.verify(a.AuthID)

	d, err := s.svc.Dashboard.Dashboard(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, d.Role)
	s.Nil(d.User)
	s.Nil(d.Cause)
	s.Require().NotNil(d.Admin)
	s.Len(d.Admin.AllUsers, 2)
	s.Len(d.Admin.VerifiedUsers, 1)
	s.Len(d.Admin.UnverifiedUsers, 1)
	s.Len(d.Admin.AllCauses, 2)
	s.Require().Len(d.Admin.VerifiedCauses, 1)
	s.Equal(a.CauseID, d.Admin.VerifiedCauses[0].ID)
	s.Len(d.Admin.UnverifiedCauses, 1)
}

func (s *ServiceSuite) TestUserDashboard() {
	u, sess := s.verifiedUser("giver")
	c := s.ngo(sess, "Mine")
	s.verify(c.AuthID)

	_, err := s.svc.Ledger.RecordDonation(s.ctx, sess, DonationInput{UserID: u.UserID, CauseID: c.CauseID, Amount: 12})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordVolunteer(s.ctx, sess, VolunteerInput{UserID: u.UserID, CauseID: c.CauseID, Hours: 3})
	s.Require().NoError(err)

	d, err := s.svc.Dashboard.Dashboard(s.ctx, sess)
	s.Require().NoError(err)
	s.Require().NotNil(d.User)
	s.Nil(d.Admin)
	s.Equal("giver", d.User.Profile.Name)
	s.Len(d.User.OwnedCauses, 1)
	s.Len(d.User.Donations, 1)
	s.Len(d.User.Volunteering, 1)
	s.Empty(d.User.Feedbacks)
}

func (s *ServiceSuite) TestCauseDashboardTotals() {
	u1, s1 := s.verifiedUser("one")
	u2, s2 := s.verifiedUser("two")
	c := s.ngo(s1, "Totals")
	s.verify(c.AuthID)
	causeSess := s.causeSession(c)

	for _, in := range []struct {
		sess *domain.Session
		id   uint
		amt  float64
	}{{s1, u1.UserID, 10}, {s2, u2.UserID, 15.5}} {
		_, err := s.svc.Ledger.RecordDonation(s.ctx, in.sess, DonationInput{UserID: in.id, CauseID: c.CauseID, Amount: in.amt})
		s.Require().NoError(err)
	}
	_, err := s.svc.Ledger.RecordVolunteer(s.ctx, s2, VolunteerInput{UserID: u2.UserID, CauseID: c.CauseID, Hours: 4})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordFeedback(s.ctx, s1, FeedbackInput{UserID: u1.UserID, CauseID: c.CauseID, Rating: 5})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.RecordFeedback(s.ctx, s2, FeedbackInput{UserID: u2.UserID, CauseID: c.CauseID, Rating: 2})
	s.Require().NoError(err)

	d, err := s.svc.Dashboard.Dashboard(s.ctx, causeSess)
	s.Require().NoError(err)
	s.Require().NotNil(d.Cause)
	s.Equal(domain.RoleCause, d.Role)
	s.Equal(c.CauseID, d.Cause.Profile.ID)
	t := d.Cause.Totals
	s.Equal(2, t.DonationCount)
	s.InDelta(25.5, t.DonationSum, 1e-9)
	s.Equal(1, t.VolunteerCount)
	s.InDelta(4.0, t.VolunteerHours, 1e-9)
	s.Equal(2, t.FeedbackCount)
	s.InDelta(3.5, t.AverageRating, 1e-9)
}
