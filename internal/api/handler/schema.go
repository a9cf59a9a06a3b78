package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the central error handler.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// flexID accepts an identifier sent either as a JSON number or a quoted string.
// Identifiers are rendered as strings because they exceed the JSON safe integer range.
type flexID int64

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*id = flexID(v)
	return nil
}

// UnmarshalParam lets echo bind flexID from form and query values.
func (id *flexID) UnmarshalParam(param string) error {
	return id.UnmarshalJSON([]byte(param))
}

func toIDs(in []flexID) []int64 {
	out := make([]int64, 0, len(in))
	for _, id := range in {
		out = append(out, int64(id))
	}
	return out
}

// --- Verification ---

type serviceNumberRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
}

type officialNameRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
	OfficialName  string `json:"official_name"  validate:"required"`
}

type phoneFactorRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
	PhoneNumber   string `json:"phone_number"   validate:"required"`
}

type emailFactorRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
	Email         string `json:"email"          validate:"required,email"`
}

type verifyOTPRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
	OTP           string `json:"otp"            validate:"required,len=6,numeric"`
}

type verifyOTPResponse struct {
	Status            string `json:"status"`
	VerificationToken string `json:"verification_token"`
}

type setPasswordRequest struct {
	ServiceNumber     string `json:"service_number"     validate:"required"`
	VerificationToken string `json:"verification_token" validate:"required"`
	Password          string `json:"password"           validate:"required"`
	ConfirmPassword   string `json:"confirm_password"   validate:"required"`
}

// --- Auth ---

type loginRequest struct {
	ServiceNumber string `json:"service_number" validate:"required"`
	Password      string `json:"password"       validate:"required"`
}

type loginResponse struct {
	Access    string            `json:"access"`
	Refresh   string            `json:"refresh"`
	ExpiresAt time.Time         `json:"expires_at"`
	Personnel *domain.Personnel `json:"personnel"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"     validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// --- Personnel ---

type registerPersonnelRequest struct {
	FirstName        string `json:"first_name"        validate:"required"`
	MiddleName       string `json:"middle_name"`
	Surname          string `json:"surname"           validate:"required"`
	ServiceNumber    string `json:"service_number"    validate:"required"`
	Email            string `json:"email"             validate:"omitempty,email"`
	PhoneNumber      string `json:"phone_number"      validate:"required"`
	Rank             string `json:"rank"`
	Role             string `json:"role"              validate:"omitempty,oneof=personnel admin"`
	PreferredContact string `json:"preferred_contact" validate:"omitempty,oneof=email sms"`
}

type updateProfileRequest struct {
	PhoneNumber      *string `json:"phone_number"      validate:"omitempty,min=1"`
	Rank             *string `json:"rank"`
	PreferredContact *string `json:"preferred_contact" validate:"omitempty,oneof=email sms"`
}

// publicPersonnelResponse is what any authenticated caller may see of another member.
type publicPersonnelResponse struct {
	ID           string `json:"id"`
	OfficialName string `json:"official_name"`
	Rank         string `json:"rank,omitempty"`
}

func toPublicPersonnel(p *domain.Personnel) publicPersonnelResponse {
	return publicPersonnelResponse{
		ID:           strconv.FormatInt(p.ID, 10),
		OfficialName: p.OfficialName,
		Rank:         p.Rank,
	}
}

// --- Messages ---

type sendMessageRequest struct {
	RecipientID flexID `json:"recipient_id" form:"recipient_id"`
	Content     string `json:"content"      form:"content"`
	LinkURL     string `json:"link_url"     form:"link_url"`
}

type messageIDRequest struct {
	MessageID flexID `json:"message_id" validate:"required"`
}

type forwardRequest struct {
	OriginalMessageID flexID `json:"original_message_id" validate:"required"`
	RecipientID       flexID `json:"recipient_id"        validate:"required"`
}

type reactRequest struct {
	MessageID    flexID `json:"message_id"    validate:"required"`
	ReactionType string `json:"reaction_type" validate:"required"`
}

// --- Threads ---

type createThreadRequest struct {
	ParticipantIDs []flexID `json:"participant_ids" validate:"required,min=1"`
	Name           string   `json:"name"`
}

type createGroupRequest struct {
	ParticipantIDs []flexID `json:"participant_ids" validate:"required,min=1"`
	Name           string   `json:"name"            validate:"required"`
}

type participantRequest struct {
	ParticipantID flexID `json:"participant_id" validate:"required"`
}

// threadResponse renders a thread with every identifier as a string.
type threadResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Participants []string  `json:"participants"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func toThreadResponse(t *domain.Thread) threadResponse {
	members := make([]string, 0, len(t.Participants))
	for _, id := range t.Participants {
		members = append(members, strconv.FormatInt(id, 10))
	}
	return threadResponse{
		ID:           strconv.FormatInt(t.ID, 10),
		Name:         t.Name,
		Participants: members,
		CreatedBy:    strconv.FormatInt(t.CreatedBy, 10),
		CreatedAt:    t.CreatedAt,
	}
}

func toThreadResponses(list []*domain.Thread) []threadResponse {
	out := make([]threadResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toThreadResponse(t))
	}
	return out
}

type threadMessageRequest struct {
	Content string `json:"content"  form:"content"`
	LinkURL string `json:"link_url" form:"link_url"`
}

var _ json.Unmarshaler = (*flexID)(nil)
