package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/irc-library/maktaba/model"
	"github.com/pkg/errors"
)

const (
	AccessTokenCookieName = "maktaba.access-token"
	AccessTokenDuration   = 7 * 24 * time.Hour

	issuer = "maktaba"
)

type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an access token carrying the actor's name,
// email and role.
func GenerateAccessToken(identity model.Identity, expirationTime time.Time, secret []byte) (string, error) {
	c := &claims{
		Email: identity.Email,
		Role:  string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.Name,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(secret)
}

// ParseAccessToken validates a token and returns the identity it carries.
func ParseAccessToken(tokenString string, secret []byte) (*model.Identity, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse access token")
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}

	return &model.Identity{
		Name:  c.Subject,
		Email: c.Email,
		Role:  model.Role(c.Role),
	}, nil
}
