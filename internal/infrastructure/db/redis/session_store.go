package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// revokeScript deletes the session key only while it still holds the given id.
var revokeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore keeps the single live session id of each identity.
// Key format: session:personnel:<id> -> <session id>
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Replace overwrites the identity's entry in one SET, which is what
// invalidates the previous session.
func (s *SessionStore) Replace(ctx context.Context, sess *domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("replace session: %w", domain.ErrInvalidInput)
	}
	if err := s.client.Set(ctx, sessionKey(sess.PersonnelID), sess.ID, ttl).Err(); err != nil {
		return storeErr("replace session", err)
	}
	return nil
}

func (s *SessionStore) Current(ctx context.Context, personnelID int64) (string, error) {
	id, err := s.client.Get(ctx, sessionKey(personnelID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("current session", err)
	}
	return id, nil
}

func (s *SessionStore) Revoke(ctx context.Context, personnelID int64, sessionID string) error {
	if err := revokeScript.Run(ctx, s.client, []string{sessionKey(personnelID)}, sessionID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return storeErr("revoke session", err)
	}
	return nil
}

func sessionKey(personnelID int64) string {
	return "session:personnel:" + strconv.FormatInt(personnelID, 10)
}
