// Package validator provides the request validator for the echo webserver framework.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type structValidator struct {
	validator *validator.Validate
}

// New returns a new Validator for the echo webserver framework. It validates
// structs by their `validate` tags.
func New() echo.Validator {
	v := &structValidator{
		validator: validator.New(),
	}

	return v
}

// Validate returns an error that lists every failed field.
func (cv *structValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := []string{}
	for _, e := range verrs {
		details = append(details, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}

	return fmt.Errorf("%s", strings.Join(details, ", "))
}
