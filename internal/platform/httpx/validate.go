package httpx

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldIssue describes one failed validation rule.
type FieldIssue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate

	isoUTC = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{1,3})?Z$`)
)

// ISODateMessage is reported for values failing the iso8601 rule.
const ISODateMessage = "La fecha DEBE estar en formato ISO 8601 (ej: 2025-11-13T00:00:00Z)"

// Validator returns the shared validator. Field names are reported using
// their json tag and the custom "iso8601" rule accepts UTC timestamps only.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
			return IsISODate(fl.Field().String())
		})
	})
	return validate
}

// IsISODate reports whether value is a full ISO-8601 UTC timestamp.
func IsISODate(value string) bool {
	return isoUTC.MatchString(value)
}

// ParseISODate parses a value accepted by the iso8601 rule.
func ParseISODate(value string) (time.Time, error) {
	if !IsISODate(value) {
		return time.Time{}, errors.New(ISODateMessage)
	}
	return time.Parse(time.RFC3339, value)
}

// ValidateStruct runs struct validation and returns the issues found.
func ValidateStruct(v any) []FieldIssue {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldIssue{{Message: err.Error()}}
	}
	issues := make([]FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, FieldIssue{Path: []string{fe.Field()}, Message: issueMessage(fe)})
	}
	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Falta " + fe.Field()
	case "iso8601":
		return ISODateMessage
	case "email":
		return "Email inválido"
	case "min":
		return fe.Field() + " debe tener al menos " + fe.Param()
	case "max":
		return fe.Field() + " debe tener como máximo " + fe.Param()
	case "oneof":
		return fe.Field() + " debe ser uno de: " + fe.Param()
	default:
		return fe.Field() + " no es válido"
	}
}

// ValidationProblem writes a 422 response listing the issues.
func ValidationProblem(w http.ResponseWriter, issues []FieldIssue) {
	JSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: "Validation error", Details: issues})
}

// Bind decodes the JSON body into target and validates it. On failure the
// response has already been written and false is returned.
func Bind(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := DecodeJSON(r, target); err != nil {
		Error(w, http.StatusBadRequest, "Cuerpo JSON inválido")
		return false
	}
	if issues := ValidateStruct(target); len(issues) > 0 {
		ValidationProblem(w, issues)
		return false
	}
	return true
}
