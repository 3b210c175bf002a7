// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// USER PROFILE
// =============================================================================

// UserProfile holds the demographic and medical fields of the signed-in user.
type UserProfile struct {
	Name        string   `json:"fullName"`
	Email       string   `json:"email,omitempty"`
	Age         WireAge  `json:"age,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	Conditions  []string `json:"conditions"`
}

// UnmarshalJSON reads the display name from "fullName", falling back to
// "name" for older backends.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var aux struct {
		plain
		LegacyName string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = UserProfile(aux.plain)
	if p.Name == "" {
		p.Name = aux.LegacyName
	}
	return nil
}

// Clone returns a deep copy of the profile.
func (p UserProfile) Clone() UserProfile {
	p.Allergies = cloneStrings(p.Allergies)
	p.Medications = cloneStrings(p.Medications)
	p.Conditions = cloneStrings(p.Conditions)
	return p
}

// ProfileUpdate is a partial profile. Nil fields are absent.
type ProfileUpdate struct {
	Name        *string   `json:"fullName,omitempty"`
	Age         *WireAge  `json:"age,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	Allergies   *[]string `json:"allergies,omitempty"`
	Medications *[]string `json:"medications,omitempty"`
	Conditions  *[]string `json:"conditions,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.Gender == nil &&
		u.Allergies == nil && u.Medications == nil && u.Conditions == nil
}

// Merge returns p with every present field of u applied.
// Fields absent from u keep their current value.
func (p UserProfile) Merge(u ProfileUpdate) UserProfile {
	out := p.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Age != nil {
		out.Age = *u.Age
	}
	if u.Gender != nil {
		out.Gender = *u.Gender
	}
	if u.Allergies != nil {
		out.Allergies = cloneStrings(*u.Allergies)
	}
	if u.Medications != nil {
		out.Medications = cloneStrings(*u.Medications)
	}
	if u.Conditions != nil {
		out.Conditions = cloneStrings(*u.Conditions)
	}
	return out
}

// =============================================================================
// WIRE AGE
// =============================================================================

// WireAge is an age as the backend stores it: a string that may also
// arrive as a JSON number or null.
type WireAge string

// Int parses the age as an integer.
func (a WireAge) Int() (int, bool) {
	n, err := strconv.Atoi(string(a))
	if err != nil {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON accepts a string, a number or null.
func (a *WireAge) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = WireAge(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = WireAge(n.String())
	return nil
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// UserSummary is the user object returned alongside an access token.
type UserSummary struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	Email     string   `json:"email"`
	CreatedAt WireTime `json:"createdAt,omitempty"`
}

// Credentials are the result of a successful login or signup.
type Credentials struct {
	Token string      `json:"access_token"`
	User  UserSummary `json:"user"`

	// ExpiresAt is read from the token's exp claim when the token is a JWT.
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the token carries an expiry that has passed.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
