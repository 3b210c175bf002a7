// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Age bounds accepted by the profile and signup forms.
const (
	MinAge            = 1
	MaxAge            = 120
	MinPasswordLength = 6
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError is a failed check on one form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed check of a form, in field order.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// For returns the first message recorded for field, or "".
func (v ValidationErrors) For(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Err returns v as an error, or nil when there are no failures.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// AsValidation extracts ValidationErrors from err.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// =============================================================================
// FORMS
// =============================================================================

// LoginForm holds the login fields.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Validate trims the email and checks both fields.
func (f *LoginForm) Validate() ValidationErrors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// SignupForm holds the signup fields. The medical lists are optional.
type SignupForm struct {
	FullName    string `form:"fullName" validate:"required"`
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=6"`
	Age         string `form:"age" validate:"omitempty,age"`
	Gender      string `form:"gender"`
	Allergies   []string
	Medications []string
	Conditions  []string
}

// Validate trims the text fields and checks the form.
// The password is checked as typed.
func (f *SignupForm) Validate() ValidationErrors {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Age = strings.TrimSpace(f.Age)
	f.Gender = strings.TrimSpace(f.Gender)
	return check(f)
}

// ProfileForm holds the required fields of the profile editor.
type ProfileForm struct {
	Name   string `form:"fullName" validate:"required"`
	Age    string `form:"age" validate:"required,age"`
	Gender string `form:"gender" validate:"required"`
}

// Validate trims and checks the form.
func (f *ProfileForm) Validate() ValidationErrors {
	f.Name = strings.TrimSpace(f.Name)
	f.Age = strings.TrimSpace(f.Age)
	f.Gender = strings.TrimSpace(f.Gender)
	return check(f)
}

// Email checks a single address, used for the provider email prompt.
func Email(field, value string) ValidationErrors {
	value = strings.TrimSpace(value)
	if err := validate.Var(value, "required,email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "required" {
			return ValidationErrors{{Field: field, Message: "Email is required"}}
		}
		return ValidationErrors{{Field: field, Message: "Enter a valid email address"}}
	}
	return nil
}

// =============================================================================
// VALIDATOR
// =============================================================================

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	if err := v.RegisterValidation("age", validAge); err != nil {
		panic(err)
	}
	return v
}

// validAge accepts a whole number in [MinAge, MaxAge].
func validAge(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil && n >= MinAge && n <= MaxAge
}

func check(form any) ValidationErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "form", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

var labels = map[string]string{
	"fullName": "Full name",
	"email":    "Email",
	"password": "Password",
	"age":      "Age",
	"gender":   "Gender",
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "age":
		return fmt.Sprintf("Age must be a whole number between %d and %d", MinAge, MaxAge)
	default:
		return label + " is invalid"
	}
}
