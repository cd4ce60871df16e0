package handler

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts validator/v10 to echo.Validator.  Field names in
// messages are the JSON names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns the first failed rule as a readable message.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return errors.New(fe.Field() + " is required")
	case "email":
		return errors.New("Invalid email format")
	case "min":
		return errors.New(fe.Field() + " must be at least " + fe.Param())
	case "max":
		return errors.New(fe.Field() + " must be at most " + fe.Param())
	case "gte":
		return errors.New(fe.Field() + " must be greater than or equal to " + fe.Param())
	case "lte":
		return errors.New(fe.Field() + " must be less than or equal to " + fe.Param())
	case "oneof":
		return errors.New(fe.Field() + " must be one of: " + fe.Param())
	case "eqfield":
		return errors.New(fe.Field() + " must match " + fe.Param())
	case "datetime":
		return errors.New(fe.Field() + " must use the format " + fe.Param())
	}
	return errors.New("Validation failed for " + fe.Field())
}

// bind decodes the body into req and validates it.  On failure it writes
// the 400 response and returns false.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return false, badRequest(c, err.Error())
	}
	return true, nil
}

// optionalTime parses an optional date ("2006-01-02") or RFC 3339 timestamp.
func optionalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date: " + s)
}
