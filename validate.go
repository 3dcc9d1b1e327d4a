package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// nowFunc is swapped in tests that pin the year validator.
var nowFunc = time.Now

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Release year must not be in the future.
	_ = v.RegisterValidation("pastyear", func(fl validator.FieldLevel) bool {
		return int(fl.Field().Int()) <= nowFunc().Year()
	})
	// URL-safe slug: lowercase letters, digits, dashes.
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// decode unmarshals the request body into dst and validates it, translating
// validator failures into the field-error taxonomy.
func (app *application) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fieldError("body", fmt.Sprintf("malformed request body: %v", err))
	}
	if err := app.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fe := FieldErrors{}
		for _, ve := range verrs {
			fe[jsonFieldName(ve)] = validationMessage(ve)
		}
		return fe
	}
	return nil
}

func jsonFieldName(ve validator.FieldError) string {
	// Namespace is Struct.Field; drop the struct prefix and snake-case the
	// leaf, which matches our json tags.
	name := ve.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "pastyear":
		return "year must not be in the future"
	case "slug":
		return "must contain only lowercase letters, digits and dashes"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
