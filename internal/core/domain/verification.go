package domain

// VerificationState is the progress of one identity verification attempt,
// keyed by service number. States only ever move forward.
type VerificationState string

const (
	VerificationStart                  VerificationState = "start"
	VerificationServiceNumberConfirmed VerificationState = "service_number_confirmed"
	VerificationFactorConfirmed        VerificationState = "factor_confirmed"
	VerificationOTPIssued              VerificationState = "otp_issued"
	VerificationOTPVerified            VerificationState = "otp_verified"
	VerificationPasswordSet            VerificationState = "password_set"
)

var verificationOrder = map[VerificationState]int{
	VerificationStart:                  0,
	VerificationServiceNumberConfirmed: 1,
	VerificationFactorConfirmed:        2,
	VerificationOTPIssued:              3,
	VerificationOTPVerified:            4,
	VerificationPasswordSet:            5,
}

// Rank is the position of s in the flow; unknown states rank as Start.
func (s VerificationState) Rank() int {
	return verificationOrder[s]
}

// Reached reports whether s is at or beyond target.
func (s VerificationState) Reached(target VerificationState) bool {
	return s.Rank() >= target.Rank()
}

// Terminal reports whether the attempt has finished.
func (s VerificationState) Terminal() bool {
	return s == VerificationPasswordSet
}

// FactorKind names the second identifying fact supplied after the service number.
type FactorKind string

const (
	FactorOfficialName FactorKind = "official_name"
	FactorPhoneNumber  FactorKind = "phone_number"
	FactorEmail        FactorKind = "email"
)

// Channel returns the OTP delivery channel implied by the factor. The official
// name proves nothing about a contact channel, so it issues no code.
func (k FactorKind) Channel() (ContactChannel, bool) {
	switch k {
	case FactorPhoneNumber:
		return ChannelSMS, true
	case FactorEmail:
		return ChannelEmail, true
	default:
		return "", false
	}
}
