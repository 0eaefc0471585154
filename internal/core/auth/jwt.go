package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken no credential was presented.
	ErrMissingToken = errors.New("access token required")
	// ErrInvalidToken a credential was presented but failed signature, claim or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// DefaultTTL 会话有效期
const DefaultTTL = 24 * time.Hour

type Claims struct {
	UID  string `json:"uid"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}

// JWTer issues and verifies stateless session tokens. Rotating Secret invalidates
// every outstanding token; there is no server-side revocation.
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) ttl() time.Duration {
	if j.TTL <= 0 {
		return DefaultTTL
	}
	return j.TTL
}

// Issue mints a signed token for the principal and returns its expiry.
func (j *JWTer) Issue(uid string, role Role) (string, time.Time, error) {
	if strings.TrimSpace(uid) == "" {
		return "", time.Time{}, errors.New("uid is required")
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}
	if len(j.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	now := j.now()
	exp := now.Add(j.ttl())
	claims := Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies signature and expiry and returns the raw claims.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	if j.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(j.Leeway))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}

// Authenticate returns the identity embedded in a valid token.
func (j *JWTer) Authenticate(tokenStr string) (Identity, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return Identity{}, err
	}
	if c.UID == "" || !c.Role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: c.UID, Role: c.Role}, nil
}
