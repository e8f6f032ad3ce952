// Package phonenumber validates phone number strings.
package phonenumber

import "github.com/go-playground/validator/v10"

// MaxLength is the storage limit for phone number columns.
const MaxLength = 13

var validate = validator.New()

// IsPhoneNumber reports whether s is an E.164 number that fits the storage limit.
func IsPhoneNumber(s string) bool {
	if len(s) > MaxLength {
		return false
	}
	return validate.Var(s, "required,e164") == nil
}
