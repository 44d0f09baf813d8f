package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// kaspaAddressPattern matches bech32-style Kaspa wallet addresses, the
// pseudonymous reporter key on scam reports.
var kaspaAddressPattern = regexp.MustCompile(`^kaspa:[a-z0-9]{8,90}$`)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("kaspaaddr", func(fl validator.FieldLevel) bool {
		return kaspaAddressPattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
