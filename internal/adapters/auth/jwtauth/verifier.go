package jwtauth

import (
	"context"
	"time"

	"pet-health-tracker/internal/ports/auth"
)

// Verify implementa auth.AuthVerifier. Solo acepta access tokens.
func (i *Issuer) Verify(ctx context.Context, token string) (auth.Claims, error) {
	c, err := i.parse(token, typeAccess)
	if err != nil {
		return auth.Claims{}, err
	}
	return auth.Claims{Username: c.Username, IsAdmin: c.Admin}, nil
}

// VerifyRefresh valida firma y expiración de un refresh token. Que siga
// vigente en el store lo decide sessions.
func (i *Issuer) VerifyRefresh(token string) (auth.Claims, time.Time, error) {
	c, err := i.parse(token, typeRefresh)
	if err != nil {
		return auth.Claims{}, time.Time{}, err
	}
	return auth.Claims{Username: c.Username, IsAdmin: c.Admin}, c.ExpiresAt.Time, nil
}
