package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	RolePersonnel = "personnel"
	RoleAdmin     = "admin"
)

// ContactChannel selects how one-time codes and notices reach a person.
type ContactChannel string

const (
	ChannelEmail ContactChannel = "email"
	ChannelSMS   ContactChannel = "sms"
)

// PendingOTP is the one-time code currently outstanding for a Personnel.
type PendingOTP struct {
	Code      string    `json:"-" bson:"code"`
	ExpiresAt time.Time `json:"-" bson:"expires_at"`
}

// Expired reports whether the code can no longer be used at now.
func (o PendingOTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Personnel is the identity record of an organization member and the
// authentication principal. ServiceNumber never changes once assigned.
type Personnel struct {
	ID               int64          `json:"id,string"`
	OfficialName     string         `json:"official_name"`
	ServiceNumber    string         `json:"service_number"`
	Email            string         `json:"email,omitempty"`
	PhoneNumber      string         `json:"phone_number"`
	PasswordHash     string         `json:"-"`
	OTP              *PendingOTP    `json:"-"`
	Rank             string         `json:"rank,omitempty"`
	Role             string         `json:"role"`
	PreferredContact ContactChannel `json:"preferred_contact"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// HasPassword reports whether the verification flow has been completed at least once.
func (p *Personnel) HasPassword() bool {
	return p.PasswordHash != ""
}

// ContactAddress returns the address used for the given channel.
func (p *Personnel) ContactAddress(ch ContactChannel) string {
	if ch == ChannelSMS {
		return p.PhoneNumber
	}
	return p.Email
}

// DeriveOfficialName builds the canonical "initials surname" form, e.g.
// ("John", "Ade", "Okafor") -> "JA Okafor" and ("John", "", "Okafor") -> "J Okafor".
func DeriveOfficialName(firstName, middleName, surname string) string {
	var b strings.Builder
	b.WriteString(initial(firstName))
	b.WriteString(initial(middleName))
	surname = strings.TrimSpace(surname)
	if b.Len() == 0 {
		return surname
	}
	if surname != "" {
		b.WriteByte(' ')
		b.WriteString(surname)
	}
	return b.String()
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

const minPasswordLength = 8

// ValidatePassword enforces the password complexity policy.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrWeakPassword
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

// ValidateNewPassword checks confirmation first, then complexity.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return ValidatePassword(password)
}
