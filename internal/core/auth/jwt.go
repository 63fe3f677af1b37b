package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"causebridge/pkg/utils"
)

type Claims struct {
	AuthID uint   `json:"aid"`
	Role   string `json:"role"` // admin, user or cause
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Issue signs a token for the account. The token id is unique per call so a
// single token can be denied without affecting others.
func (j *JWTer) Issue(authID uint, role string) (string, *Claims, error) {
	now := j.now()
	claims := &Claims{
		AuthID: authID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.NewID(),
			Subject:   strconv.FormatUint(uint64(authID), 10),
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(j.Secret)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(5*time.Second), jwt.WithTimeFunc(j.now))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.AuthID != 0 {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
