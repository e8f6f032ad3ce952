package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirectoryNumber is a labelled external number kept for quick dialing.
type DirectoryNumber struct {
	ID          uuid.UUID `json:"id"`
	Label       string    `json:"label"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDirectoryNumber validates and creates a directory entry.
func NewDirectoryNumber(id uuid.UUID, label, phoneNumber string, isPhoneNumber func(string) bool) (*DirectoryNumber, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidArgument)
	}
	if !isPhoneNumber(phoneNumber) {
		return nil, fmt.Errorf("%w: %q is not a phone number", ErrInvalidArgument, phoneNumber)
	}
	return &DirectoryNumber{
		ID:          id,
		Label:       label,
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
