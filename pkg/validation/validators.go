package validation

import (
	"strings"

	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/imaging"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("interest", ValidInterest)
	_ = v.RegisterValidation("avatar", ValidAvatar)
	_ = v.RegisterValidation("not_blank", NotBlank)
}

// ValidInterest accepts only interests from the catalog.
func ValidInterest(fl validator.FieldLevel) bool {
	return domain.IsKnownInterest(fl.Field().String())
}

// ValidAvatar accepts an http(s) URL or a base64 image data URL.
func ValidAvatar(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return imaging.IsAvatarReference(val)
}

// NotBlank rejects whitespace-only strings.
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
