package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Refresher canjea un refresh token por un par nuevo (refresh silencioso).
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}
