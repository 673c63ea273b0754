package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// Validator checks request payloads and query strings.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with the enum list rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("ticket_statuses", enumList(func(s string) bool {
		return domain.TicketStatus(s).Valid()
	}))
	_ = v.RegisterValidation("equipment_statuses", enumList(func(s string) bool {
		return domain.EquipmentStatus(s).Valid()
	}))
	return &Validator{validate: v}
}

// Struct validates i and reports failures as a VALIDATION_FAILED error
// keyed by field name.
func (v *Validator) Struct(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid request", nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid request", details)
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// enumList accepts a comma separated list whose every element passes valid.
func enumList(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		for _, part := range SplitList(fl.Field().String()) {
			if !valid(part) {
				return false
			}
		}
		return true
	}
}

// SplitList splits a comma separated query value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
