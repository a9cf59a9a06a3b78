package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

const (
	tokenIssuer = "personnel-messaging"

	kindAccess  = "access"
	kindRefresh = "refresh"
	kindReset   = "password_reset"
)

// Claims is the JWT payload for every token the service issues.
type Claims struct {
	Kind      string `json:"kind"`
	SessionID string `json:"sid,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// tokenSigner signs and parses HS256 tokens. Reset tokens are keyed on the
// current password hash as well, so they die once the password changes.
type tokenSigner struct {
	secret []byte
	now    func() time.Time
}

func (t tokenSigner) sign(kind string, personnelID int64, sessionID, role string, ttl time.Duration, key []byte) (string, time.Time, error) {
	issuedAt := t.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		Kind:      kind,
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(personnelID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// parse validates signature, expiry, issuer and kind and returns the claims
// with the subject decoded as a personnel id.
func (t tokenSigner) parse(raw, kind string, key []byte) (*Claims, int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, 0, domain.ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, 0, domain.ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, 0, domain.ErrInvalidToken
	}
	return claims, id, nil
}
