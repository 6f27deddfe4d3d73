package booking

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Layouts accepted for a datetime-local input value.
var dateTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.999999999",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json names so errors line up with the input names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("referral", func(fl validator.FieldLevel) bool {
		return Referral(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("datetime_local", func(fl validator.FieldLevel) bool {
		_, err := ParseDateTime(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseDateTime parses a datetime-local value (no zone) in local time.
func ParseDateTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Validate checks the constraints the form's inputs declare: required name,
// phone, email and date/time, a well formed email and date/time, and a
// referral from the allowed set. It returns a *ValidationError on failure.
func Validate(data FormData) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = messageFor(fe)
	}
	return &ValidationError{Fields: fields}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "datetime_local":
		return "Please choose a valid date and time"
	case "referral":
		return "Please choose one of the listed options"
	default:
		return "Invalid value"
	}
}
