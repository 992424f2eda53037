package form

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var hundred = decimal.NewFromInt(100)

// Bounds on numeric input. Anything larger is not a plausible price or
// percentage and would make comparisons and encoding arbitrarily expensive.
const (
	maxNumberLength = 32
	maxExponent     = 20
	maxDigits       = 20
)

var messages = map[string]string{
	FieldTitle:              "Title is required",
	FieldPrice:              "Valid price is required",
	FieldStock:              "Valid stock quantity is required",
	FieldCategory:           "Category is required",
	FieldDiscountPercentage: "Discount must be between 0 and 100",
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	mustRegister("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister("positive_decimal", func(fl validator.FieldLevel) bool {
		d, ok := parseDecimal(fl.Field().String())
		return ok && d.IsPositive()
	})
	mustRegister("non_negative_int", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n >= 0
	})
	// An empty percentage means "no discount".
	mustRegister("percentage", func(fl validator.FieldLevel) bool {
		if strings.TrimSpace(fl.Field().String()) == "" {
			return true
		}
		d, ok := parseDecimal(fl.Field().String())
		return ok && !d.IsNegative() && d.LessThanOrEqual(hundred)
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNumberLength {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent || d.NumDigits() > maxDigits {
		return decimal.Zero, false
	}
	return d, true
}

// Result is the outcome of validating a draft.
type Result struct {
	Valid  bool
	Errors Errors
}

// Validate checks every field independently and reports all failures at once.
func Validate(d Draft) Result {
	errs := Errors{}
	if err := validate.Struct(d); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			errs[""] = err.Error()
			return Result{Errors: errs}
		}
		for _, fieldError := range validationErrors {
			errs[fieldError.Field()] = message(fieldError)
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
