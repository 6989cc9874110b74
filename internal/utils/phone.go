package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Ethiopian mobile numbers: +2519xxxxxxxx / +2517xxxxxxxx in international
// form, or 09xxxxxxxx / 07xxxxxxxx in local form.
var etPhonePattern = regexp.MustCompile(`^(\+251[79]\d{8}|0[79]\d{8})$`)

// IsEthiopianPhone reports whether s looks like a valid Ethiopian mobile number.
func IsEthiopianPhone(s string) bool {
	return etPhonePattern.MatchString(s)
}

// EthiopianPhoneValidator is registered with gin's binding engine under the
// "etphone" tag so DTOs can declare `binding:"etphone"` on phone fields.
func EthiopianPhoneValidator(fl validator.FieldLevel) bool {
	return IsEthiopianPhone(fl.Field().String())
}
