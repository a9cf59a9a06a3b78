package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const (
	DefaultOTPTTL = 5 * time.Minute

	otpSpace = 1_000_000
)

// OTPEngine issues and checks single-use time-limited codes held on a Personnel record.
type OTPEngine struct {
	repo       ports.PersonnelRepository
	dispatcher ports.NotificationDispatcher
	ttl        time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewOTPEngine(repo ports.PersonnelRepository, dispatcher ports.NotificationDispatcher, ttl time.Duration, log zerolog.Logger) *OTPEngine {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPEngine{repo: repo, dispatcher: dispatcher, ttl: ttl, now: time.Now, log: log}
}

// GenerateOTP returns a zero-padded 6-digit code drawn uniformly from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpace))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue stores a fresh code on p, replacing any unconsumed one, and queues it
// for delivery over ch. Delivery is best effort; the stored code is authoritative.
func (e *OTPEngine) Issue(ctx context.Context, p *domain.Personnel, ch domain.ContactChannel) error {
	code, err := GenerateOTP()
	if err != nil {
		return err
	}

	otp := domain.PendingOTP{Code: code, ExpiresAt: e.now().UTC().Add(e.ttl)}
	if err := e.repo.SetOTP(ctx, p.ID, otp); err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	p.OTP = &otp

	if ch == "" {
		ch = p.PreferredContact
	}
	address := p.ContactAddress(ch)
	if address == "" {
		e.log.Warn().Int64("personnel_id", p.ID).Str("channel", string(ch)).Msg("no address for otp channel, code stored but not sent")
		return nil
	}

	e.dispatcher.Dispatch(ports.Notification{
		PersonnelID: p.ID,
		Channel:     ch,
		Address:     address,
		Subject:     "Your verification code",
		Body:        fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(e.ttl.Minutes())),
	})

	e.log.Info().Int64("personnel_id", p.ID).Str("channel", string(ch)).Msg("otp issued")
	return nil
}

// Verify reports whether code matches the pending code and is still live.
// A successful check consumes the code. It fails with domain.ErrNoPendingOTP
// when nothing is outstanding; a wrong or stale code is a false result.
func (e *OTPEngine) Verify(ctx context.Context, p *domain.Personnel, code string) (bool, error) {
	if p.OTP == nil || p.OTP.Code == "" {
		return false, domain.ErrNoPendingOTP
	}

	match := subtle.ConstantTimeCompare([]byte(p.OTP.Code), []byte(code)) == 1
	live := !p.OTP.Expired(e.now())
	if !match || !live {
		return false, nil
	}

	consumed, err := e.repo.ConsumeOTP(ctx, p.ID, p.OTP.Code)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		// Another request consumed or replaced the code first.
		return false, nil
	}
	p.OTP = nil
	return true, nil
}
