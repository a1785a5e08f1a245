package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
)

var (
	validate      *validator.Validate
	shortCodeExpr = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return shortCodeExpr.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
}

// validateForm checks the shape of the input only. Uniqueness is the
// caller's job since it needs the store.
func validateForm(form domain.MappingForm) *domain.ValidationError {
	verr := &domain.ValidationError{}

	err := validate.Struct(form)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(domain.FieldURL, err.Error(), nil)
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe), nil)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", field)
	case "utf8":
		return fmt.Sprintf("%s must be valid UTF-8", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "shortcode":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// normalizeShortPath undoes the one escape the redirect route relies on.
// Nothing else is decoded.
func normalizeShortPath(shortPath string) string {
	return strings.ReplaceAll(shortPath, "%2F", "/")
}
