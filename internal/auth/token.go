// Package auth issues and verifies the credentials used by the API:
// short-lived HS256 access tokens, opaque refresh/verification tokens
// (only their SHA-256 hash is persisted) and bcrypt password hashes.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/swing-festival-finder/internal/model"
)

// ErrInvalidToken is returned for any access token that fails parsing,
// signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// OpaqueToken is a random token handed to the client. Only Hash() of Raw
// is stored server side.
type OpaqueToken struct {
	Raw string    `json:"token"`
	Exp time.Time `json:"expires"`
}

// Claims carried by access tokens. Subject holds the decimal user id.
type Claims struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue builds and signs an access token for u.
func (i *Issuer) Issue(u model.SessionUser) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email:    u.Email,
		Verified: u.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Parse verifies raw and returns the session it describes.
func (i *Issuer) Parse(raw string) (model.Session, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return model.Session{}, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return model.Session{}, ErrInvalidToken
	}
	return model.Session{User: model.SessionUser{ID: id, Email: claims.Email, Verified: claims.Verified}}, nil
}

// NewOpaqueToken returns a random 96 hex character token valid for ttl.
func NewOpaqueToken(ttl time.Duration) (OpaqueToken, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{Raw: hex.EncodeToString(buf), Exp: time.Now().UTC().Add(ttl)}, nil
}

// Hash returns the hex SHA-256 of the raw token, the only form persisted.
func (t OpaqueToken) Hash() string { return HashToken(t.Raw) }

// HashToken returns the hex SHA-256 of raw.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
