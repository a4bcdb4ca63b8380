package service

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries user-correctable field errors keyed by form field name.
type ValidationError struct {
	Fields map[string][]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Add appends a message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// errOrNil returns e as an error only when it carries field errors.
func (e *ValidationError) errOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// newValidator builds the validator used for all account forms.
// Field names in errors come from the `form` tag.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return isWebURL(fl.Field().String())
	})

	return v
}

// isWebURL accepts absolute http or https URLs with a host.
func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateStruct runs struct validation and converts failures to a ValidationError.
func validateStruct(v *validator.Validate, obj any) *ValidationError {
	return toValidationError(v.Struct(obj))
}

// validatePartial validates only the named struct fields (Go field names).
// No names means nothing is checked.
func validatePartial(v *validator.Validate, obj any, fields []string) *ValidationError {
	if len(fields) == 0 {
		return &ValidationError{}
	}
	return toValidationError(v.StructPartial(obj, fields...))
}

func toValidationError(err error) *ValidationError {
	verr := &ValidationError{}
	if err == nil {
		return verr
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("__all__", "Invalid input.")
		return verr
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		// dive errors are reported as name[index]
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		verr.Add(field, fieldErrorMessage(fe))
	}

	return verr
}

func fieldErrorMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "weburl":
		return "Enter a valid URL."
	case "eqfield":
		return "The two password fields didn't match."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	case "min":
		if isList {
			return fmt.Sprintf("Ensure this list has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("Ensure this list has no more than %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
