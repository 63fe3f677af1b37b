package main

import (
	"context"
	"errors"

	"causebridge/internal/app"
	"causebridge/internal/domain"
	"causebridge/internal/service"
)

const demoPassword = "demo-password"

// seeder builds the demo dataset. Every step is skipped when its result is
// already present, so an interrupted run can simply be repeated.
type seeder struct {
	a       *app.App
	admin   *domain.Session
	created int
}

// seedDemo registers two users, an NGO and an event, verifies them all and
// records one engagement of each kind.
func seedDemo(ctx context.Context, a *app.App, adminName, adminPassword string) (int, error) {
	admin, err := login(ctx, a, adminName, adminPassword)
	if err != nil {
		return 0, err
	}
	s := &seeder{a: a, admin: admin}

	donor, err := s.account(ctx, service.RegisterInput{Name: "demo-donor", Role: "user", Email: "donor@example.org"})
	if err != nil {
		return s.created, err
	}
	owner, err := s.account(ctx, service.RegisterInput{Name: "demo-owner", Role: "user", Email: "owner@example.org"})
	if err != nil {
		return s.created, err
	}
	ngo, err := s.account(ctx, service.RegisterInput{
		Name: "Demo Relief Trust", Role: "ngo", OwnerUserID: owner.UserID,
		Description: "Food and shelter for families in need",
		Locations:   []service.LocationInput{{Latitude: 24.86, Longitude: 67.01, City: "Karachi", Country: "Pakistan"}},
	})
	if err != nil {
		return s.created, err
	}
	if _, err := s.account(ctx, service.RegisterInput{
		Name: "Demo Beach Cleanup", Role: "event", OwnerUserID: owner.UserID,
		Description: "Morning cleanup at the shore", Date: "2026-12-05", Time: "08:00",
	}); err != nil {
		return s.created, err
	}
	return s.created, s.engage(ctx, donor.UserID, ngo.CauseID)
}

// account registers in, or finds the account of the same name, and makes
// sure it is verified.
func (s *seeder) account(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error) {
	in.Password = demoPassword
	res, err := s.a.Services.Identity.Register(ctx, nil, in)
	switch {
	case err == nil:
		s.created++
	case nameTaken(err):
		if res, err = s.existing(ctx, in.Name); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if _, err := s.a.Services.Verification.Verify(ctx, s.admin, res.AuthID); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *seeder) existing(ctx context.Context, name string) (*service.RegisterResult, error) {
	st := s.a.Store
	auth, err := st.AuthByName(ctx, name)
	if err != nil {
		return nil, err
	}
	res := &service.RegisterResult{AuthID: auth.ID, Role: auth.Role}
	switch auth.Role {
	case domain.RoleUser:
		u, err := st.UserByAuth(ctx, auth.ID)
		if err != nil {
			return nil, err
		}
		res.UserID = u.ID
	case domain.RoleCause:
		c, err := st.CauseByAuth(ctx, auth.ID)
		if err != nil {
			return nil, err
		}
		res.CauseID = c.ID
	default:
		return nil, errors.New("demo account " + name + " has role " + string(auth.Role))
	}
	return res, nil
}

// engage records each engagement kind the donor has not yet recorded on the
// cause.
func (s *seeder) engage(ctx context.Context, userID, causeID uint) error {
	donor, err := login(ctx, s.a, "demo-donor", demoPassword)
	if err != nil {
		return err
	}
	l := s.a.Services.Ledger
	have, err := l.ListByUser(ctx, donor, userID)
	if err != nil {
		return err
	}
	if !onCause(have.Donations, causeID, func(d domain.Donation) uint { return d.CauseID }) {
		if _, err := l.RecordDonation(ctx, donor, service.DonationInput{UserID: userID, CauseID: causeID, Amount: 25}); err != nil {
			return err
		}
	}
	if !onCause(have.Volunteers, causeID, func(v domain.Volunteer) uint { return v.CauseID }) {
		if _, err := l.RecordVolunteer(ctx, donor, service.VolunteerInput{UserID: userID, CauseID: causeID, Hours: 3}); err != nil {
			return err
		}
	}
	if !onCause(have.Feedbacks, causeID, func(f domain.Feedback) uint { return f.CauseID }) {
		if _, err := l.RecordFeedback(ctx, donor, service.FeedbackInput{UserID: userID, CauseID: causeID, Rating: 5, Comment: "well run"}); err != nil {
			return err
		}
	}
	return nil
}

func onCause[T any](rows []T, causeID uint, cause func(T) uint) bool {
	for _, r := range rows {
		if cause(r) == causeID {
			return true
		}
	}
	return false
}

func login(ctx context.Context, a *app.App, name, password string) (*domain.Session, error) {
	out, err := a.Services.Identity.Authenticate(ctx, name, password)
	if err != nil {
		return nil, err
	}
	carrier, cred := bearerOrCookie(out)
	return a.Services.Identity.ResolveSession(ctx, carrier, cred)
}

func bearerOrCookie(out *service.LoginResult) (domain.Carrier, string) {
	if out.Token != "" {
		return domain.CarrierBearer, out.Token
	}
	return domain.CarrierCookie, out.CookieID
}

func nameTaken(err error) bool {
	var de *domain.Error
	return errors.As(err, &de) && de.Kind == domain.KindValidation && de.Msg == "name already taken"
}
