package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims are the JWT claims issued by this service.  The registered claims
// carry sub, jti, iat, nbf and exp; Type and Fresh are private claims.
type Claims struct {
	Type  string `json:"type"`
	Fresh bool   `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a numeric user id.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// SignedToken is a serialized JWT together with the identifier and expiry
// it was issued with.
type SignedToken struct {
	Token string    // the serialized JWT string
	JTI   string    // unique token id
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 access token for a user.  Fresh
// is true only for tokens obtained by presenting a password.
func NewAccessToken(secret string, userID uint64, fresh bool, ttl time.Duration) (SignedToken, error) {
	return issue(secret, userID, TokenTypeAccess, fresh, ttl)
}

// NewRefreshToken builds and signs an HS256 refresh token.  Refresh tokens
// are never fresh.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (SignedToken, error) {
	return issue(secret, userID, TokenTypeRefresh, false, ttl)
}

func issue(secret string, userID uint64, typ string, fresh bool, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		Type:  typ,
		Fresh: fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ErrMalformedClaims is returned when a correctly signed token lacks the
// claims this service relies on.
var ErrMalformedClaims = errors.New("token is missing required claims")

// ParseToken verifies the signature and time based claims of raw and returns
// its claims.  Only HS256 is accepted.  Expiry is reported as
// jwt.ErrTokenExpired so callers can distinguish it with errors.Is.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrMalformedClaims
	}
	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, ErrMalformedClaims
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}
