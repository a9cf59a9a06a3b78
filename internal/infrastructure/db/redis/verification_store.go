package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

const defaultVerificationTTL = 30 * time.Minute

// advanceScript moves the stored state forward only. ARGV: new state, its
// rank, ttl in ms, then every state name in rank order for lookup.
var advanceScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
local target = tonumber(ARGV[2])
if cur then
	for i = 4, #ARGV do
		if ARGV[i] == cur and (i - 4) >= target then
			redis.call("PEXPIRE", KEYS[1], ARGV[3])
			return cur
		end
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return ARGV[1]
`)

// orderedStates lists the flow states by rank.
var orderedStates = []domain.VerificationState{
	domain.VerificationStart,
	domain.VerificationServiceNumberConfirmed,
	domain.VerificationFactorConfirmed,
	domain.VerificationOTPIssued,
	domain.VerificationOTPVerified,
	domain.VerificationPasswordSet,
}

// VerificationStore keeps verification progress per service number. Entries
// expire so an abandoned attempt starts over.
// Key formats: verification:<service number> for the state and
// verification-token:<service number> for the password token digest.
type VerificationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVerificationStore(client *redis.Client, ttl time.Duration) *VerificationStore {
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return &VerificationStore{client: client, ttl: ttl}
}

func (s *VerificationStore) Get(ctx context.Context, serviceNumber string) (domain.VerificationState, error) {
	v, err := s.client.Get(ctx, verificationKey(serviceNumber)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.VerificationStart, nil
	}
	if err != nil {
		return "", storeErr("verification state", err)
	}
	return domain.VerificationState(v), nil
}

func (s *VerificationStore) Advance(ctx context.Context, serviceNumber string, state domain.VerificationState) (domain.VerificationState, error) {
	args := make([]interface{}, 0, 3+len(orderedStates))
	args = append(args, string(state), state.Rank(), s.ttl.Milliseconds())
	for _, st := range orderedStates {
		args = append(args, string(st))
	}

	v, err := advanceScript.Run(ctx, s.client, []string{verificationKey(serviceNumber)}, args...).Text()
	if err != nil {
		return "", storeErr("advance verification", err)
	}
	return domain.VerificationState(v), nil
}

func (s *VerificationStore) Reset(ctx context.Context, serviceNumber string, state domain.VerificationState) error {
	if err := s.client.Set(ctx, verificationKey(serviceNumber), string(state), s.ttl).Err(); err != nil {
		return storeErr("reset verification", err)
	}
	return nil
}

func (s *VerificationStore) SaveToken(ctx context.Context, serviceNumber, digest string) error {
	if err := s.client.Set(ctx, verificationTokenKey(serviceNumber), digest, s.ttl).Err(); err != nil {
		return storeErr("save verification token", err)
	}
	return nil
}

func (s *VerificationStore) Token(ctx context.Context, serviceNumber string) (string, error) {
	v, err := s.client.Get(ctx, verificationTokenKey(serviceNumber)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("verification token", err)
	}
	return v, nil
}

func verificationKey(serviceNumber string) string {
	return "verification:" + serviceNumber
}

func verificationTokenKey(serviceNumber string) string {
	return "verification-token:" + serviceNumber
}
