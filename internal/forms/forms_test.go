// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package forms

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm(t *testing.T) {
	f := LoginForm{Email: "  ann@example.com ", Password: "x"}
	assert.Empty(t, f.Validate())
	assert.Equal(t, "ann@example.com", f.Email)

	f = LoginForm{}
	errs := f.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "Email is required", errs.For("email"))
	assert.Equal(t, "Password is required", errs.For("password"))

	f = LoginForm{Email: "not-an-email", Password: "x"}
	assert.Equal(t, "Enter a valid email address", f.Validate().For("email"))
}

func TestSignupForm_PasswordLength(t *testing.T) {
	f := SignupForm{FullName: "Ann", Email: "a@example.com", Password: "12345"}
	errs := f.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
	assert.Equal(t, "Password must be at least 6 characters", errs[0].Message)

	f.Password = "123456"
	assert.Empty(t, f.Validate())
}

func TestSignupForm_AgeOptionalButChecked(t *testing.T) {
	f := SignupForm{FullName: "Ann", Email: "a@example.com", Password: "123456"}
	assert.Empty(t, f.Validate())

	f.Age = "0"
	assert.NotEmpty(t, f.Validate().For("age"))

	f.Age = " 42 "
	assert.Empty(t, f.Validate())
	assert.Equal(t, "42", f.Age)
}

func TestProfileForm_RequiredFields(t *testing.T) {
	f := ProfileForm{Name: "  ", Age: "abc", Gender: ""}
	errs := f.Validate()
	require.Len(t, errs, 3)
	assert.Equal(t, "Full name is required", errs.For("fullName"))
	assert.Contains(t, errs.For("age"), "between 1 and 120")
	assert.Equal(t, "Gender is required", errs.For("gender"))
}

func TestValidationErrors_AsError(t *testing.T) {
	var none ValidationErrors
	assert.NoError(t, none.Err())

	errs := ValidationErrors{{Field: "a", Message: "A bad"}, {Field: "b", Message: "B bad"}}
	wrapped := fmt.Errorf("submit: %w", errs.Err())
	got, ok := AsValidation(wrapped)
	require.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, "A bad; B bad", errs.Error())

	_, ok = AsValidation(errors.New("other"))
	assert.False(t, ok)
}

func TestEmail(t *testing.T) {
	assert.Empty(t, Email("provider", "dr@clinic.org"))
	assert.Equal(t, "Email is required", Email("provider", " ").For("provider"))
	assert.Equal(t, "Enter a valid email address", Email("provider", "dr@").For("provider"))
}

func TestAgeRangeProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("age accepted iff 1..120", prop.ForAll(
		func(n int) bool {
			f := ProfileForm{Name: "A", Age: strconv.Itoa(n), Gender: "x"}
			ok := len(f.Validate()) == 0
			return ok == (n >= MinAge && n <= MaxAge)
		},
		gen.IntRange(-50, 200),
	))

	properties.TestingRun(t)
}
