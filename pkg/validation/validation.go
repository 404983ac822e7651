package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	v        *validator.Validate
	handleRe = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{1,64}$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: owner reference, a handle or owner ID with or without a
		// leading @. Empty is allowed; pair with required when mandatory.
		_ = v.RegisterValidation("ownerref", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true
			}
			s = strings.TrimPrefix(s, "@")
			return handleRe.MatchString(s)
		})
		// Custom: view identifier must be a UUID issued by browse_collection.
		_ = v.RegisterValidation("viewid", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true
			}
			_, err := uuid.Parse(s)
			return err == nil
		})
	}
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "ownerref":
				return "VALIDATION: owner must be a handle like @kara (letters, digits, _ - .)"
			case "viewid":
				return "VIEW_EXPIRED: view_id is not a valid view identifier; start a new view with browse_collection"
			case "oneof":
				return fmt.Sprintf("VALIDATION: %s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			// Fallback generic
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
