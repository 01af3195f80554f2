package resource

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// mensajes con el nombre JSON del campo, no el de Go
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct corre los tags `validate` y traduce el primer error a ErrValidation.
func ValidateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return Invalidf("%v", err)
	}
	fe := ves[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return Invalidf("%s is required", field)
	case "email":
		return Invalidf("%s must be a valid email", field)
	case "oneof":
		return Invalidf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return Invalidf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return Invalidf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return Invalidf("%s must be less than or equal to %s", field, fe.Param())
	case "min":
		return Invalidf("%s must be at least %s", field, fe.Param())
	case "max":
		return Invalidf("%s must be at most %s", field, fe.Param())
	default:
		return Invalidf("%s is invalid", field)
	}
}
