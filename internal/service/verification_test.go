package service

import (
	"causebridge/internal/domain"
)

func (s *ServiceSuite) TestVerifyRequiresAdmin() {
	res, sess := s.verifiedUser("plain")
	pending := s.register(RegisterInput{Name: "pending", Role: "user"})

	_, err := s.svc.Verification.Verify(s.ctx, nil, pending.AuthID)
	s.requireKind(err, domain.KindAuth)
	_, err = s.svc.Verification.Verify(s.ctx, sess, pending.AuthID)
	s.requireKind(err, domain.KindPermission)
	_, err = s.svc.Verification.Unverify(s.ctx, sess, res.AuthID)
	s.requireKind(err, domain.KindPermission)

	a, err := s.store.AuthByID(s.ctx, pending.AuthID)
	s.Require().NoError(err)
	s.False(a.Verified)
}

func (s *ServiceSuite) TestVerifyUnknownAccount() {
	_, err := s.svc.Verification.Verify(s.ctx, s.admin, 9999)
	s.requireKind(err, domain.KindNotFound)
}

func (s *ServiceSuite) TestVerifyIsIdempotent() {
	res := s.register(RegisterInput{Name: "twice", Role: "user"})

	first, err := s.svc.Verification.Verify(s.ctx, s.admin, res.AuthID)
	s.Require().NoError(err)
	s.True(first.Changed)
	s.True(first.Verified)
	s.Equal(domain.RoleUser, first.Role)

	again, err := s.svc.Verification.Verify(s.ctx, s.admin, res.AuthID)
	s.Require().NoError(err)
	s.False(again.Changed)
	s.True(again.Verified)

	off, err := s.svc.Verification.Unverify(s.ctx, s.admin, res.AuthID)
	s.Require().NoError(err)
	s.True(off.Changed)
	s.False(off.Verified)

	off, err = s.svc.Verification.Unverify(s.ctx, s.admin, res.AuthID)
	s.Require().NoError(err)
	s.False(off.Changed)
}

func (s *ServiceSuite) TestAdminCannotBeUnverified() {
	_, err := s.svc.Verification.Unverify(s.ctx, s.admin, s.admin.AuthID)
	s.requireKind(err, domain.KindValidation)

	a, err := s.store.AuthByID(s.ctx, s.admin.AuthID)
	s.Require().NoError(err)
	s.True(a.Verified)
}

func (s *ServiceSuite) TestUnverifiedUserDisappears() {
	res, _ := s.verifiedUser("fading")
	_, viewer := s.verifiedUser("viewer")

	_, err := s.svc.Registry.UserByID(s.ctx, viewer, res.UserID)
	s.Require().NoError(err)

	_, err = s.svc.Verification.Unverify(s.ctx, s.admin, res.AuthID)
	s.Require().NoError(err)
	_, err = s.svc.Registry.UserByID(s.ctx, viewer, res.UserID)
	s.requireKind(err, domain.KindNotFound)
	_, err = s.svc.Identity.Authenticate(s.ctx, "fading", testPassword)
	s.requireKind(err, domain.KindPermission)
}
