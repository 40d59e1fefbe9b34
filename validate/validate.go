package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	rePhone = regexp.MustCompile(`^(?:0[6-8][0-9]{8}|\+27[6-8][0-9]{8})$`)
	// Deliberately weak: anything shaped like x@y.z without spaces passes.
	reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// IsValidPhone accepts South African mobile numbers, 0[6-8]XXXXXXXX or +27[6-8]XXXXXXXX.
func IsValidPhone(s string) bool {
	return rePhone.MatchString(s)
}

func IsValidEmail(s string) bool {
	return reEmail.MatchString(s)
}

// New returns a validator with the sa_phone and weak_email tags registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("sa_phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	v.RegisterValidation("weak_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}
