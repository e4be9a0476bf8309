package jwtauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pet-health-tracker/internal/ports/auth"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	ErrTokenEmpty     = errors.New("token is empty")
	ErrWrongTokenType = errors.New("wrong token type")
	ErrSecretMissing  = errors.New("jwt secret is empty")
)

type tokenClaims struct {
	Username string `json:"username"`
	Admin    bool   `json:"is_admin,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer firma y verifica tokens HS256. Access y refresh comparten secreto y
// se distinguen por el claim "type".
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretMissing
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock fija el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Issue(username string, isAdmin bool) (auth.Tokens, error) {
	now := i.now().UTC()

	access, accessExp, err := i.sign(username, isAdmin, typeAccess, now, i.accessTTL)
	if err != nil {
		return auth.Tokens{}, err
	}
	refresh, refreshExp, err := i.sign(username, isAdmin, typeRefresh, now, i.refreshTTL)
	if err != nil {
		return auth.Tokens{}, err
	}

	return auth.Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(username string, isAdmin bool, typ string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := tokenClaims{
		Username: username,
		Admin:    isAdmin,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func (i *Issuer) parse(token, typ string) (tokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return tokenClaims{}, ErrTokenEmpty
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return tokenClaims{}, fmt.Errorf("parse %s token: %w", typ, err)
	}
	if claims.Type != typ {
		return tokenClaims{}, ErrWrongTokenType
	}
	if strings.TrimSpace(claims.Username) == "" {
		return tokenClaims{}, errors.New("token missing username")
	}
	return claims, nil
}
