package domain

import "time"

// Session is the live login of one Personnel. At most one exists per identity.
type Session struct {
	ID          string
	PersonnelID int64
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Credential is the token pair handed to a client at login.
type Credential struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	PersonnelID int64
	SessionID   string
	Role        string
}
