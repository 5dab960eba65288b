// Package validator wraps go-playground/validator for request structs.
package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"stockledger/internal/core/apperror"
)

// FieldError describes one failed rule.
type FieldError struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var validate = validator.New()

func init() {
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if v, ok := fl.Field().Interface().(uuid.UUID); ok {
			return v != uuid.Nil
		}
		return false
	})
}

// ValidateStruct returns every failed rule of data, or nil.
func ValidateStruct(data any) []*FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*FieldError{{FailedField: "", Tag: err.Error()}}
	}

	out := make([]*FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &FieldError{
			FailedField: fe.StructNamespace(),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return out
}

// Validate runs ValidateStruct and converts failures into a VALIDATION_ERROR.
func Validate(data any) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return apperror.NewValidation(
		fmt.Sprintf("field '%s' failed on tag '%s'", first.FailedField, first.Tag),
	).WithDetail("fields", errs)
}
