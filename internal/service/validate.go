package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Dan9191/payments-tracker/internal/models"
)

var (
	countryPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	phonePattern    = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

// Validator checks payment fields against their wire formats
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the payment-specific tags
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "country_alpha2", countryPattern)
	mustRegister(v, "currency_alpha3", currencyPattern)
	mustRegister(v, "phone_e164", phonePattern)
	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Payment validates a full record, including the completed-needs-evidence rule
func (v *Validator) Payment(p *models.Payment) error {
	if err := v.check(p); err != nil {
		return err
	}
	if p.AddedDate.IsZero() {
		return &ValidationError{Field: "payee_added_date_utc", Reason: "is required"}
	}
	if p.DueDate.IsZero() {
		return &ValidationError{Field: "payee_due_date", Reason: "is required"}
	}
	return requireEvidence(p)
}

// Patch validates the fields present in a partial update
func (v *Validator) Patch(patch *models.PaymentPatch) error {
	return v.check(patch)
}

func requireEvidence(p *models.Payment) error {
	if p.Status == models.StatusCompleted && strings.TrimSpace(p.EvidenceFileID) == "" {
		return &ValidationError{Field: "evidence_file_id", Reason: "is required for completed status"}
	}
	return nil
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate: %w", err)
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	if f, ok := fe.Value().(float64); ok && math.IsNaN(f) {
		return "is missing or not a number"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "phone_e164":
		return "must be in E.164 format"
	case "country_alpha2":
		return "must be a two-letter uppercase country code"
	case "currency_alpha3":
		return "must be a three-letter uppercase currency code"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	}
	return "is invalid"
}
