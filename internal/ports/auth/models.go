package auth

import "time"

// Claims representa la información extraída del access token.
type Claims struct {
	Username string
	IsAdmin  bool
}

// Tokens es el par emitido en login/refresh.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
