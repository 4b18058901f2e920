// Package validation checks request forms with validator/v10 and reports
// failures as *model.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookshelf/internal/model"
)

var (
	userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	isbnPattern   = regexp.MustCompile(`^(?:[0-9]{9}[0-9X]|[0-9]{13})$`)
)

// Validator wraps go-playground/validator with our custom tags.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the userid, birth and isbn10or13 tags registered.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return userIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("birth", func(fl validator.FieldLevel) bool {
		return ValidBirth(fl.Field().String())
	})
	_ = v.RegisterValidation("isbn10or13", func(fl validator.FieldLevel) bool {
		return ValidISBN(fl.Field().String())
	})
	v.RegisterStructValidation(registerBookRules, model.RegisterBookRequest{})
	v.RegisterStructValidation(updateUserBookRules, model.UpdateUserBookRequest{})

	return &Validator{v: v}
}

// ValidBirth reports whether s is a YYMMDD date with month 1-12 and day 1-31.
func ValidBirth(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	month, _ := strconv.Atoi(s[2:4])
	day, _ := strconv.Atoi(s[4:6])
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// ValidISBN reports whether s is an ISBN-10 (last digit may be X) or an
// ISBN-13. Check digits are not verified.
func ValidISBN(s string) bool {
	return isbnPattern.MatchString(s)
}

// SplitTags turns the comma separated tag field into trimmed, non-empty tags.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func registerBookRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.RegisterBookRequest)
	if req.Status == model.StatusCompleted && req.EndDate == "" {
		sl.ReportError(req.EndDate, "endDate", "EndDate", "required_if", "status completed")
	}
	if len(SplitTags(req.Tags)) > model.MaxTags {
		sl.ReportError(req.Tags, "tags", "Tags", "maxtags", strconv.Itoa(model.MaxTags))
	}
}

// updateUserBookRules applies the completed-needs-endDate rule to edits.
// Only a request that sets status to completed must carry the end date.
func updateUserBookRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.UpdateUserBookRequest)
	if req.Status != nil && *req.Status == model.StatusCompleted && (req.EndDate == nil || *req.EndDate == "") {
		sl.ReportError(req.EndDate, "endDate", "EndDate", "required_if", "status completed")
	}
}

// Validate checks s and returns a *model.ValidationError on failure.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &model.ValidationError{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "maxtags":
		return fmt.Sprintf("must have at most %s tags", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "userid":
		return "may only contain letters, digits, '_' and '-'"
	case "birth":
		return "must be a YYMMDD date"
	case "isbn10or13":
		return "must be a 10 or 13 digit ISBN"
	default:
		return "is invalid"
	}
}
