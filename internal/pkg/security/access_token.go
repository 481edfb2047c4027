package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenIssuer = "saaskit"

// DefaultAccessTokenTTL is the lifetime of bearer tokens issued at login.
const DefaultAccessTokenTTL = 15 * time.Minute

var (
	ErrMissingSecret = errors.New("secret is required for access tokens")
	ErrInvalidToken  = errors.New("invalid access token")
	ErrTokenRevoked  = errors.New("access token revoked")
)

// AccessClaims identify the user behind a bearer token.
type AccessClaims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Admin     bool   `json:"admin,omitempty"`
	Anonymous bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *AccessClaims) UserID() uint {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Denylist remembers revoked token ids until they would have expired.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IssueAccessToken signs an HS256 token for the given user.
func IssueAccessToken(userID uint, name, email string, admin, anonymous bool, ttl time.Duration, secret string) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := AccessClaims{
		Name:      name,
		Email:     email,
		Admin:     admin,
		Anonymous: anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    accessTokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func ParseAccessToken(token, secret string) (*AccessClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(accessTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID() == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckNotRevoked fails with ErrTokenRevoked when the token id is denylisted.
// A nil list accepts every token.
func CheckNotRevoked(ctx context.Context, list Denylist, claims *AccessClaims) error {
	if list == nil || claims.ID == "" {
		return nil
	}
	revoked, err := list.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}
