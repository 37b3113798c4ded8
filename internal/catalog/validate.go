// internal/catalog/validate.go
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// bookFields carries the caller-supplied fields of a new book through validation.
type bookFields struct {
	Key    string `validate:"required"`
	Title  string `validate:"required"`
	Author string `validate:"required"`
	Year   int    `validate:"required,pubyear"`
}

// newValidator builds a validator whose pubyear tag accepts MinYear through
// the current calendar year reported by now.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pubyear", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= MinYear && year <= now().UTC().Year()
	})
	return v
}

// checkFields maps validator failures onto the library error kinds. Missing
// fields win over range failures.
func checkFields(v *validator.Validate, f bookFields, now func() time.Time) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate book: %w", err)
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%s is required: %w", strings.ToLower(fe.Field()), errs.ErrValidation)
		}
	}
	return fmt.Errorf("year %d must be between %d and %d: %w", f.Year, MinYear, now().UTC().Year(), errs.ErrRange)
}
