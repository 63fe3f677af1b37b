package service

import (
	"context"

	"causebridge/internal/domain"
)

// DashboardService composes the other services into the view for a role. It
// holds no state of its own.
type DashboardService struct {
	*base
	registry *RegistryService
	ledger   *LedgerService
}

type AdminDashboard struct {
	AllUsers         []domain.User  `json:"all_users"`
	AllCauses        []domain.Cause `json:"all_causes"`
	UnverifiedUsers  []domain.User  `json:"unverified_users"`
	UnverifiedCauses []domain.Cause `json:"unverified_causes"`
	VerifiedUsers    []domain.User  `json:"verified_users"`
	VerifiedCauses   []domain.Cause `json:"verified_causes"`
}

type UserDashboard struct {
	Profile      *domain.User       `json:"profile"`
	OwnedCauses  []domain.Cause     `json:"owned_causes"`
	Donations    []domain.Donation  `json:"donations"`
	Volunteering []domain.Volunteer `json:"volunteering"`
	Feedbacks    []domain.Feedback  `json:"feedbacks"`
}

type CauseDashboard struct {
	Profile            *domain.Cause      `json:"profile"`
	DonationsReceived  []domain.Donation  `json:"donations_received"`
	VolunteersReceived []domain.Volunteer `json:"volunteers_received"`
	FeedbackReceived   []domain.Feedback  `json:"feedback_received"`
	Totals             domain.Totals      `json:"totals"`
}

// Dashboard carries exactly one of the role views.
type Dashboard struct {
	Role  domain.Role     `json:"role"`
	Admin *AdminDashboard `json:"admin,omitempty"`
	User  *UserDashboard  `json:"user,omitempty"`
	Cause *CauseDashboard `json:"cause,omitempty"`
}

func (s *DashboardService) Dashboard(ctx context.Context, caller *domain.Session) (*Dashboard, error) {
	if caller == nil {
		return nil, domain.Permission("login required")
	}
	if caller.Expired(s.now()) {
		return nil, domain.AuthErr("session expired")
	}

	out := &Dashboard{Role: caller.Role}
	var err error
	switch caller.Role {
	case domain.RoleAdmin:
		out.Admin, err = s.admin(ctx, caller)
	case domain.RoleUser:
		out.User, err = s.user(ctx, caller)
	case domain.RoleCause:
		out.Cause, err = s.cause(ctx, caller)
	default:
		return nil, domain.Permission("unknown role")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) admin(ctx context.Context, caller *domain.Session) (*AdminDashboard, error) {
	users, err := s.registry.ListUsers(ctx, caller)
	if err != nil {
		return nil, err
	}
	causes, err := s.registry.ListCauses(ctx, caller)
	if err != nil {
		return nil, err
	}
	d := &AdminDashboard{
		AllUsers:         users,
		AllCauses:        causes,
		UnverifiedUsers:  []domain.User{},
		UnverifiedCauses: []domain.Cause{},
		VerifiedUsers:    []domain.User{},
		VerifiedCauses:   []domain.Cause{},
	}
	for _, u := range users {
		if domain.IsVisible(u.Auth) {
			d.VerifiedUsers = append(d.VerifiedUsers, u)
		} else {
			d.UnverifiedUsers = append(d.UnverifiedUsers, u)
		}
	}
	for _, c := range causes {
		if domain.IsVisible(c.Auth) {
			d.VerifiedCauses = append(d.VerifiedCauses, c)
		} else {
			d.UnverifiedCauses = append(d.UnverifiedCauses, c)
		}
	}
	return d, nil
}

func (s *DashboardService) user(ctx context.Context, caller *domain.Session) (*UserDashboard, error) {
	profile, err := s.registry.UserByID(ctx, caller, caller.UserID)
	if err != nil {
		return nil, err
	}
	owned, err := s.registry.OwnedCauses(ctx, caller, caller.UserID)
	if err != nil {
		return nil, err
	}
	e, err := s.ledger.ListByUser(ctx, caller, caller.UserID)
	if err != nil {
		return nil, err
	}
	return &UserDashboard{
		Profile:      profile,
		OwnedCauses:  owned,
		Donations:    e.Donations,
		Volunteering: e.Volunteers,
		Feedbacks:    e.Feedbacks,
	}, nil
}

func (s *DashboardService) cause(ctx context.Context, caller *domain.Session) (*CauseDashboard, error) {
	profile, err := s.registry.CauseByID(ctx, caller, caller.CauseID)
	if err != nil {
		return nil, err
	}
	e, err := s.ledger.ListByCause(ctx, caller, caller.CauseID)
	if err != nil {
		return nil, err
	}
	return &CauseDashboard{
		Profile:            profile,
		DonationsReceived:  e.Donations,
		VolunteersReceived: e.Volunteers,
		FeedbackReceived:   e.Feedbacks,
		Totals:             e.Totals(),
	}, nil
}
