package domain

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleName is one of the fixed account roles.
type RoleName string

const (
	RoleEmployee   RoleName = "EMPLOYEE"
	RoleAdmin      RoleName = "ADMIN"
	RoleSuperAdmin RoleName = "SUPER_ADMIN"
)

// ParseRoleName validates a role name coming from a request or the database.
func ParseRoleName(s string) (RoleName, error) {
	switch r := RoleName(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleEmployee, RoleAdmin, RoleSuperAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: role %q", ErrInvalidArgument, s)
}

// IsAdmin reports whether the role may use admin routes.
func (r RoleName) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Role struct {
	ID        uuid.UUID `json:"id"`
	Name      RoleName  `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account. Role is loaded alongside RoleID for convenience.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	HashedPassword      string    `json:"-"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	RoleID              uuid.UUID `json:"role_id"`
	Role                RoleName  `json:"role"`
	IsEnabled           bool      `json:"is_enabled"`
	IsVoiceMailEnabled  bool      `json:"is_voice_mail_enabled"`
	VoicemailStorageKey *string   `json:"voicemail_storage_key,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EnableVoicemail turns voicemail on with the greeting stored under storageKey.
func (u *User) EnableVoicemail(storageKey string) error {
	if storageKey == "" {
		return fmt.Errorf("%w: empty voicemail storage key", ErrInvalidArgument)
	}
	k := storageKey
	u.IsVoiceMailEnabled = true
	u.VoicemailStorageKey = &k
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) DisableVoicemail() {
	u.IsVoiceMailEnabled = false
	u.VoicemailStorageKey = nil
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) Disable() {
	u.IsEnabled = false
	u.UpdatedAt = time.Now().UTC()
}

// RefreshToken is the server-side record behind a refresh JWT. The JWT carries its ID.
type RefreshToken struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ExpirationAt time.Time
	IsValid      bool
	CreatedAt    time.Time
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.IsValid && now.Before(t.ExpirationAt)
}

// Otp is a one-time code. Only the hash of the code is kept.
type Otp struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ValueHash  string
	ValidUntil time.Time
	Verified   bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// Verify marks the code used when hash matches and it is still valid at now.
func (o *Otp) Verify(hash string, now time.Time) error {
	if o.Verified || !now.Before(o.ValidUntil) || subtle.ConstantTimeCompare([]byte(o.ValueHash), []byte(hash)) != 1 {
		return ErrOTPInvalid
	}
	o.Verified = true
	t := now.UTC()
	o.VerifiedAt = &t
	return nil
}
