package http

import (
	"time"

	"github.com/google/uuid"

	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

// UserProfileResponse defines the structure for the /users/me endpoint.
type UserProfileResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Role               string    `json:"role"`
	IsEnabled          bool      `json:"is_enabled"`
	IsVoiceMailEnabled bool      `json:"is_voice_mail_enabled"`
	CreatedAt          time.Time `json:"created_at"`
}

func toUserProfile(u *userdomain.User) UserProfileResponse {
	return UserProfileResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               string(u.Role),
		IsEnabled:          u.IsEnabled,
		IsVoiceMailEnabled: u.IsVoiceMailEnabled,
		CreatedAt:          u.CreatedAt,
	}
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=EMPLOYEE ADMIN SUPER_ADMIN"`
}

type ReplaceNumbersRequest struct {
	NumberIDs []uuid.UUID `json:"number_ids" validate:"max=50"`
}

type CreateNumberRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	OwnerLabel  string `json:"owner_label" validate:"max=200"`
}

type AssignNumberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type RedirectNumberRequest struct {
	SupportLineID uuid.UUID `json:"support_line_id" validate:"required"`
}

type AssociateRoomRequest struct {
	RoomID uuid.UUID `json:"room_id" validate:"required"`
}

// UpdateForwardingRequest carries the raw target; an unusable target clears forwarding.
type UpdateForwardingRequest struct {
	ForwardedNumber string `json:"forwarded_number" validate:"max=32"`
	IsForwarded     bool   `json:"is_forwarded"`
}

type SetVoicemailRequest struct {
	Enabled    bool   `json:"enabled"`
	StorageKey string `json:"storage_key" validate:"required_if=Enabled true,max=512"`
}

// PhoneNumberResponse is returned by mutations; reads return the full summary.
type PhoneNumberResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PhoneNumber        string     `json:"phone_number"`
	ForwardedNumber    *string    `json:"forwarded_number"`
	IsForwarded        bool       `json:"is_forwarded"`
	ActiveAssociation  string     `json:"active_association"`
	AssociatedID       *uuid.UUID `json:"associated_id"`
	IsVoiceMailEnabled bool       `json:"is_voice_mail_enabled"`
}

type RecomputeUsageResponse struct {
	Visited int `json:"visited"`
	Changed int `json:"changed"`
}

type CreateDirectoryNumberRequest struct {
	Label       string `json:"label" validate:"required,max=200"`
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}

// VoicemailWebhookRequest is posted by the telephony provider once a recording is stored.
type VoicemailWebhookRequest struct {
	ID                string     `json:"id" validate:"required"`
	DateCreated       *time.Time `json:"date_created"`
	MediaURL          string     `json:"media_url" validate:"omitempty,url"`
	FromNumber        string     `json:"from_number"`
	ToNumber          string     `json:"to_number" validate:"required"`
	Duration          string     `json:"duration" validate:"omitempty,numeric"`
	Status            string     `json:"status"`
	CallSID           string     `json:"call_sid"`
	TranscriptionSID  string     `json:"transcription_sid"`
	ShouldPostOnSlack bool       `json:"should_post_on_slack"`
	HasPostedOnSlack  bool       `json:"has_posted_on_slack"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
