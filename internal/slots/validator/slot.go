package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"creatorclub/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const (
	maxResourceIDLength = 128
	maxDateKeyLength    = 32
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	v := validator.New()

	// Report fields by their JSON names so errors match what the caller sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("partition_key", validatePartitionKey); err != nil {
		log.Fatal("Failed to register 'partition_key' validator",
			"error", err,
		)
	}

	log.Info("Slot validator initialized successfully")

	return &SlotValidator{
		validate: v,
		logger:   log,
	}
}

// validatePartitionKey accepts opaque ids that can be embedded in a slot path.
func validatePartitionKey(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || strings.TrimSpace(value) != value {
		return false
	}
	for _, r := range value {
		if r == '/' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Validate checks any of the slot request structs against their tags.
func (v *SlotValidator) Validate(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidatePartition checks a bare (resource_id, date_key) pair, as taken from a URL path.
func (v *SlotValidator) ValidatePartition(resourceID, dateKey string) error {
	var errs ValidationErrors

	fields := []struct {
		name  string
		value string
		tag   string
	}{
		{"resource_id", resourceID, fmt.Sprintf("required,max=%d,partition_key", maxResourceIDLength)},
		{"date_key", dateKey, fmt.Sprintf("required,max=%d,partition_key", maxDateKeyLength)},
	}
	for _, f := range fields {
		if err := v.validate.Var(f.value, f.tag); err != nil {
			var validationErrs validator.ValidationErrors
			if !errors.As(err, &validationErrs) {
				return err
			}
			for _, fe := range v.translateValidationErrors(validationErrs) {
				fe.Field = f.name
				fe.Message = strings.Replace(fe.Message, "value", f.name, 1)
				errs = append(errs, fe)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *SlotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := err.Field()
		if field == "" {
			field = "value"
		}
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			if err.Kind() == reflect.Slice {
				message = fmt.Sprintf("%s must contain at least %s item(s)", field, err.Param())
			} else {
				message = fmt.Sprintf("%s must be at least %s", field, err.Param())
			}
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "partition_key":
			message = fmt.Sprintf("%s must not contain '/', control characters or surrounding spaces", field)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}
