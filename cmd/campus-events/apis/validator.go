package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 8

// Validator plugs validator/v10 into echo. Field errors are reported by
// their JSON name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Both tag names are unused by validator, so registration cannot fail.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("notification_type", func(fl validator.FieldLevel) bool {
		return model.NotificationType(fl.Field().String()).Valid()
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

// strongPassword requires an upper case letter, a lower case letter and a
// digit in at least eight characters.
func strongPassword(p string) bool {
	if len(p) < minPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
