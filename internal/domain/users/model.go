package users

import "time"

// User es una cuenta del sistema. Username es único e inmutable.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	IsActive     bool
	IsAdmin      bool
	CreatedBy    string
	CreatedAt    time.Time
}
