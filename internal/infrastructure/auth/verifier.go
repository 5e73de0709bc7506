package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HMAC-signed bearer tokens and yields the verified subject
// email. Token issuance lives here too so login can hand out credentials.
type Verifier struct {
	secret   []byte
	lifespan time.Duration
}

func NewVerifier(secret string, lifespan time.Duration) *Verifier {
	if lifespan <= 0 {
		lifespan = 24 * time.Hour
	}
	return &Verifier{secret: []byte(secret), lifespan: lifespan}
}

// Verify parses and validates the token, returning the subject email.
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	email := claims.Email
	if email == "" {
		email = claims.Subject
	}
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

// Issue signs a token for the given subject email.
func (v *Verifier) Issue(email, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.lifespan)),
		},
	})
	return token.SignedString(v.secret)
}
