package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New creates a new validator instance with custom validations registered.
// Field errors report the JSON name of the field, so messages match the request body.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// "notblank" rejects whitespace-only strings such as "   " coupon codes
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	return v
}
