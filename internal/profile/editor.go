// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/session"
)

// ErrNothingToSubmit is returned when an update carries no fields.
var ErrNothingToSubmit = errors.New("no profile changes to submit")

// CommonAllergies seeds the allergy picker.
var CommonAllergies = []string{
	"Peanuts", "Tree nuts", "Milk", "Eggs", "Fish", "Shellfish", "Soy",
	"Wheat", "Sesame", "Pollen", "Dust mites", "Pet dander", "Mold", "Latex",
	"Penicillin", "Sulfa drugs", "Aspirin", "Ibuprofen", "Codeine", "Morphine",
	"Bee stings", "Wasp stings", "Food dyes", "Preservatives", "Nickel",
	"Fragrances", "Cleaning products", "Cosmetics", "Jewelry metals", "Rubber",
}

// CommonMedications seeds the medication picker.
var CommonMedications = []string{
	"Acetaminophen (Tylenol)", "Ibuprofen (Advil, Motrin)", "Aspirin",
	"Naproxen (Aleve)", "Lisinopril", "Metformin", "Amlodipine", "Omeprazole",
	"Losartan", "Albuterol", "Metoprolol", "Simvastatin", "Hydrochlorothiazide",
	"Sertraline", "Montelukast", "Tramadol", "Gabapentin", "Furosemide",
	"Prednisone", "Warfarin", "Insulin", "Levothyroxine", "Atorvastatin",
	"Clopidogrel", "Carvedilol", "Pantoprazole", "Trazodone", "Fluoxetine",
	"Citalopram", "Lorazepam", "Diazepam", "Codeine", "Morphine", "Oxycodone",
	"Hydrocodone", "Fentanyl", "Methadone", "Buprenorphine", "Naloxone",
	"Digoxin", "Flecainide", "Amiodarone", "Diltiazem", "Verapamil",
	"Nitroglycerin", "Isosorbide", "Hydralazine", "Minoxidil", "Clonidine",
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the subset of the API client the editor uses.
type Backend interface {
	UpdateProfile(ctx context.Context, token string, update model.ProfileUpdate) (model.ProfileUpdate, error)
}

// Session is the subset of the session store the editor uses.
type Session interface {
	Token() string
	MergeProfile(u model.ProfileUpdate) model.UserProfile
}

// =============================================================================
// LIST KIND
// =============================================================================

// List names one of the editable string lists.
type List int

const (
	Allergies List = iota
	Medications
	Conditions
)

func (l List) String() string {
	switch l {
	case Allergies:
		return "allergies"
	case Medications:
		return "medications"
	case Conditions:
		return "conditions"
	}
	return fmt.Sprintf("List(%d)", int(l))
}

// Common returns the reference list for l, or nil when it has none.
func (l List) Common() []string {
	switch l {
	case Allergies:
		return CommonAllergies
	case Medications:
		return CommonMedications
	}
	return nil
}

// =============================================================================
// EDITOR
// =============================================================================

// Editor holds a draft of the profile. It is owned by one view and is not
// safe for concurrent use.
type Editor struct {
	Draft model.UserProfile

	original model.UserProfile
}

// Open copies p into a new draft.
func Open(p model.UserProfile) *Editor {
	return &Editor{Draft: p.Clone(), original: p.Clone()}
}

// Validate checks the required fields of the draft.
func (e *Editor) Validate() forms.ValidationErrors {
	f := forms.ProfileForm{Name: e.Draft.Name, Age: string(e.Draft.Age), Gender: e.Draft.Gender}
	errs := f.Validate()
	e.Draft.Name, e.Draft.Age, e.Draft.Gender = f.Name, model.WireAge(f.Age), f.Gender
	return errs
}

func (e *Editor) list(l List) *[]string {
	switch l {
	case Allergies:
		return &e.Draft.Allergies
	case Medications:
		return &e.Draft.Medications
	default:
		return &e.Draft.Conditions
	}
}

// Items returns the current entries of l.
func (e *Editor) Items(l List) []string {
	return append([]string(nil), *e.list(l)...)
}

// Add appends s to l after trimming. Empty and exact duplicate entries are
// ignored. It reports whether the list changed.
func (e *Editor) Add(l List, s string) bool {
	var changed bool
	*e.list(l), changed = addUnique(*e.list(l), s)
	return changed
}

// Remove deletes the first entry equal to s. It reports whether the list
// changed.
func (e *Editor) Remove(l List, s string) bool {
	items := *e.list(l)
	for i, v := range items {
		if v == s {
			*e.list(l) = append(items[:i:i], items[i+1:]...)
			return true
		}
	}
	return false
}

// Suggestions returns the reference entries for l not yet in the draft.
func (e *Editor) Suggestions(l List) []string {
	have := make(map[string]bool)
	for _, v := range *e.list(l) {
		have[v] = true
	}
	var out []string
	for _, v := range l.Common() {
		if !have[v] {
			out = append(out, v)
		}
	}
	return out
}

// AddAllergy adds one allergy.
func (e *Editor) AddAllergy(s string) bool { return e.Add(Allergies, s) }

// AddMedication adds one medication.
func (e *Editor) AddMedication(s string) bool { return e.Add(Medications, s) }

// AddCondition adds one condition.
func (e *Editor) AddCondition(s string) bool { return e.Add(Conditions, s) }

// RemoveAllergy removes one allergy.
func (e *Editor) RemoveAllergy(s string) bool { return e.Remove(Allergies, s) }

// RemoveMedication removes one medication.
func (e *Editor) RemoveMedication(s string) bool { return e.Remove(Medications, s) }

// RemoveCondition removes one condition.
func (e *Editor) RemoveCondition(s string) bool { return e.Remove(Conditions, s) }

// Update returns the editable fields of the draft as a full update.
func (e *Editor) Update() model.ProfileUpdate {
	name := e.Draft.Name
	age := e.Draft.Age
	gender := e.Draft.Gender
	allergies := nonNil(e.Draft.Allergies)
	medications := nonNil(e.Draft.Medications)
	conditions := nonNil(e.Draft.Conditions)
	return model.ProfileUpdate{
		Name:        &name,
		Age:         &age,
		Gender:      &gender,
		Allergies:   &allergies,
		Medications: &medications,
		Conditions:  &conditions,
	}
}

// ListsUpdate returns only the three lists, used by onboarding.
func (e *Editor) ListsUpdate() model.ProfileUpdate {
	allergies := nonNil(e.Draft.Allergies)
	medications := nonNil(e.Draft.Medications)
	conditions := nonNil(e.Draft.Conditions)
	return model.ProfileUpdate{Allergies: &allergies, Medications: &medications, Conditions: &conditions}
}

// Dirty reports whether the draft differs from the profile it was opened
// with.
func (e *Editor) Dirty() bool {
	a, b := e.Draft, e.original
	return a.Name != b.Name || a.Age != b.Age || a.Gender != b.Gender ||
		!slices.Equal(a.Allergies, b.Allergies) ||
		!slices.Equal(a.Medications, b.Medications) ||
		!slices.Equal(a.Conditions, b.Conditions)
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submitter sends profile updates and merges the result into the session.
type Submitter struct {
	backend Backend
	session Session
	logger  *zap.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(backend Backend, sess Session, logger *zap.Logger) *Submitter {
	return &Submitter{backend: backend, session: sess, logger: logging.OrNop(logger).Named("profile")}
}

// Submit validates the draft and sends its editable fields. Only the fields
// the backend echoes are merged into the cached profile; the rest keep their
// cached values.
func (s *Submitter) Submit(ctx context.Context, e *Editor) (model.UserProfile, error) {
	if errs := e.Validate(); len(errs) > 0 {
		return model.UserProfile{}, errs
	}
	return s.Send(ctx, e.Update())
}

// Send submits a partial update without draft validation.
func (s *Submitter) Send(ctx context.Context, update model.ProfileUpdate) (model.UserProfile, error) {
	if update.IsEmpty() {
		return model.UserProfile{}, ErrNothingToSubmit
	}
	token := s.session.Token()
	if token == "" {
		return model.UserProfile{}, session.ErrNoToken
	}

	echoed, err := s.backend.UpdateProfile(ctx, token, update)
	if err != nil {
		s.logger.Warn("profile update failed", zap.Error(err))
		return model.UserProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	merged := s.session.MergeProfile(echoed)
	s.logger.Info("profile updated")
	return merged, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func addUnique(items []string, s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return items, false
	}
	for _, v := range items {
		if v == s {
			return items, false
		}
	}
	return append(items, s), true
}

// nonNil copies s so an empty list is sent as [] rather than null.
func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
