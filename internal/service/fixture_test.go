package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"causebridge/internal/core/auth"
	"causebridge/internal/core/session"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
	"causebridge/pkg/utils"
)

const testPassword = "correct-horse"

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *repo.MemoryStore
	svc   *Services
	admin *domain.Session
}

func (s *ServiceSuite) SetupTest() {
	utils.PasswordCost = bcrypt.MinCost
	s.ctx = context.Background()
	s.store = repo.NewMemoryStore()
	j := &auth.JWTer{Secret: []byte("service-test-secret"), Issuer: "test", TTL: time.Hour}
	mgr := session.NewManager(j, session.NewMemoryStore(), session.Options{Mode: session.ModeBoth, TTL: time.Hour})
	s.svc = New(Deps{
		Store:                s.store,
		Sessions:             mgr,
		Log:                  zaptest.NewLogger(s.T()),
		Timeout:              time.Second,
		MinPasswordLen:       8,
		RequireVerifiedLogin: true,
	})

	_, err := s.svc.Identity.EnsureAdmin(s.ctx, "root", testPassword, false)
	s.Require().NoError(err)
	s.admin = s.login("root")
}

// login authenticates and resolves the bearer token like the middleware does.
func (s *ServiceSuite) login(name string) *domain.Session {
	res, err := s.svc.Identity.Authenticate(s.ctx, name, testPassword)
	s.Require().NoError(err)
	sess, err := s.svc.Identity.ResolveSession(s.ctx, domain.CarrierBearer, res.Token)
	s.Require().NoError(err)
	return sess
}

func (s *ServiceSuite) register(in RegisterInput) *RegisterResult {
	if in.Password == "" {
		in.Password = testPassword
	}
	res, err := s.svc.Identity.Register(s.ctx, nil, in)
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) verify(authID uint) {
	_, err := s.svc.Verification.Verify(s.ctx, s.admin, authID)
	s.Require().NoError(err)
}

// verifiedUser registers, verifies and logs in a user.
func (s *ServiceSuite) verifiedUser(name string) (*RegisterResult, *domain.Session) {
	res := s.register(RegisterInput{Name: name, Role: "user", Email: name + "@example.org"})
	s.verify(res.AuthID)
	return res, s.login(name)
}

func (s *ServiceSuite) ngo(owner *domain.Session, name string) *RegisterResult {
	res, err := s.svc.Identity.Register(s.ctx, owner, RegisterInput{
		Name: name, Password: testPassword, Role: "ngo", Description: name + " helps people",
		Locations: []LocationInput{{Latitude: 24.86, Longitude: 67.0, City: "Karachi"}},
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) publicIDs() []uint {
	list, err := s.svc.Registry.PublicCauses(s.ctx, CauseFilter{})
	s.Require().NoError(err)
	ids := make([]uint, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids
}

func (s *ServiceSuite) requireKind(err error, k domain.Kind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(k, domain.KindOf(err), "got %v", err)
}

func contextCanceled(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	cancel()
	return ctx, cancel
}
