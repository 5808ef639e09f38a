package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"eldercare-server/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected validator engine")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err = v.RegisterValidation("userrole", validateUserRole); err != nil {
			return
		}
		err = v.RegisterValidation("phone", validatePhone)
	})
	return err
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).IsValid()
}

func validatePhone(fl validator.FieldLevel) bool {
	return ValidatePhoneNumber(fl.Field().String())
}

// NormalizePhone strips spaces, dashes and parentheses
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}

// ValidatePhoneNumber accepts an optional leading + followed by 5 to 15 digits
func ValidatePhoneNumber(phone string) bool {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	if len(digits) < 5 || len(digits) > 15 {
		return false
	}
	for _, char := range digits {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// ValidationMessages turns binding errors into per-field messages. The
// second result is false when err is not a validation failure.
func ValidationMessages(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "userrole":
		return "must be admin or provider"
	case "phone":
		return "must be a valid phone number"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
