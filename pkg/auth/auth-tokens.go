package auth

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

var (
	ErrMissingSecret = errors.New("token secret is required")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// User is the identity carried by a signed token. It reflects the user at issuance and is trusted verbatim until
// expiry; role changes need a new token unless the admin guard revalidates against the store.
type User struct {
	Id     int64  `json:"id" db:"id"`
	Login  string `json:"login" db:"login"`
	Email  string `json:"email" db:"email"`
	RoleId int64  `json:"role_id" db:"role_id"`
}

type claims struct {
	User
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, lifetime time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	return &Issuer{secret: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue returns a signed token for user along with its expiry.
func (i *Issuer) Issue(user User) (string, time.Time, error) {
	var issued = i.now()
	var expires = issued.Add(i.lifetime)
	var token = jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token for user %d: %w", user.Id, err)
	}
	return signed, expires, nil
}

// Verify checks the signature and expiry of a token, returning the identity it carries.
func (i *Issuer) Verify(token string) (User, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return parsed.User, nil
}
