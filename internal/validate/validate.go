// Package validate wraps go-playground/validator with the custom rules the
// workflow needs.
package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// parcelIDPattern is the allow-list for backend parcel identifiers.
var parcelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// MaxParcelIDLen is the exclusive upper bound on identifier length.
const MaxParcelIDLen = 50

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the "parcelid" rule registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("parcelid", func(fl validator.FieldLevel) bool {
		return ParcelID(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s by its struct tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// ParcelID reports whether id is a plausible backend identifier: only
// letters, digits, hyphen and underscore, and shorter than MaxParcelIDLen.
func ParcelID(id string) bool {
	return id != "" && len(id) < MaxParcelIDLen && parcelIDPattern.MatchString(id)
}

// Default is the shared instance.
var Default = New()
