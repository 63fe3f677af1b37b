package service

import (
	"context"

	"go.uber.org/zap"

	"causebridge/internal/core/metrics"
	"causebridge/internal/domain"
	"causebridge/internal/repo"
)

type VerificationService struct {
	*base
}

type VerifyResult struct {
	AuthID   uint        `json:"auth_id"`
	Role     domain.Role `json:"role"`
	Verified bool        `json:"verified"`
	Changed  bool        `json:"changed"`
}

func (s *VerificationService) Verify(ctx context.Context, caller *domain.Session, authID uint) (*VerifyResult, error) {
	return s.set(ctx, caller, authID, true)
}

func (s *VerificationService) Unverify(ctx context.Context, caller *domain.Session, authID uint) (*VerifyResult, error) {
	return s.set(ctx, caller, authID, false)
}

// set locks the Auth row for the whole toggle, so a concurrent cascade delete
// is ordered strictly before or after it.
func (s *VerificationService) set(ctx context.Context, caller *domain.Session, authID uint, verified bool) (*VerifyResult, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()

	var res VerifyResult
	err := s.store.Tx(ctx, func(tx repo.Store) error {
		a, err := tx.LockAuth(ctx, authID)
		if err != nil {
			return err
		}
		res = VerifyResult{AuthID: a.ID, Role: a.Role, Verified: verified}
		if a.Verified == verified {
			return nil
		}
		if a.Role == domain.RoleAdmin && !verified {
			return domain.Validation("admin accounts cannot be unverified")
		}
		res.Changed = true
		return tx.SetVerified(ctx, a.ID, verified)
	})
	if err != nil {
		return nil, s.fail(err, "account not found")
	}

	if res.Changed {
		metrics.Verification(verified)
		s.invalidatePublic(ctx)
		s.log.Info("verification changed",
			zap.Uint("auth_id", authID),
			zap.String("role", string(res.Role)),
			zap.Bool("verified", verified),
			zap.Uint("by_auth_id", caller.AuthID),
		)
	}
	return &res, nil
}
