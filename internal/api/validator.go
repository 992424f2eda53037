package api

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourorg/catalogdash/internal/apperrors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report query parameters by the name the caller used.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("query"); name != "" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
}

// ValidateStruct checks s and folds every failure into one ValidationError
// whose Field names the first offending parameter.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatValidationError(fieldError))
	}
	return apperrors.NewValidationError(validationErrors[0].Field(), strings.Join(messages, "; "))
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
