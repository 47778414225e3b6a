package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct validates s and returns a validation AppError listing failing fields.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperrors.Validation("invalid input")
	}

	fields := make(map[string]string, len(ve))
	var first string
	for _, fe := range ve {
		msg := message(fe)
		if first == "" {
			first = fe.Field() + " " + msg
		}
		fields[fe.Field()] = msg
	}
	return apperrors.Validation(first).WithDetails(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid id"
	case "url":
		return "must be a valid url"
	default:
		return "is invalid"
	}
}
