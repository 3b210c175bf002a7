// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
)

// field is one labelled text input of a form. name matches the form tag
// used in validation errors.
type field struct {
	name  string
	label string
	input textinput.Model
}

func newField(name, label, placeholder string) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 256
	in.Width = 40
	return field{name: name, label: label, input: in}
}

func secretField(name, label string) field {
	f := newField(name, label, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '*'
	return f
}

// =============================================================================
// AUTH VIEW
// =============================================================================

type authView struct {
	signup bool
	fields []field
	focus  int
	errs   forms.ValidationErrors
	err    string
	busy   bool
}

func newAuthView(signup bool) authView {
	v := authView{signup: signup}
	if signup {
		v.fields = []field{
			newField("fullName", "Full name", "Jane Doe"),
			newField("email", "Email", "you@example.com"),
			secretField("password", "Password"),
			newField("age", "Age", "optional"),
			newField("gender", "Gender", "optional"),
		}
	} else {
		v.fields = []field{
			newField("email", "Email", "you@example.com"),
			secretField("password", "Password"),
		}
	}
	return v
}

func (v *authView) focusCmd() tea.Cmd {
	for i := range v.fields {
		v.fields[i].input.Blur()
	}
	if len(v.fields) == 0 {
		return nil
	}
	return v.fields[v.focus].input.Focus()
}

func (v *authView) move(delta int) tea.Cmd {
	if len(v.fields) == 0 {
		return nil
	}
	v.focus = (v.focus + delta + len(v.fields)) % len(v.fields)
	return v.focusCmd()
}

func (v *authView) value(name string) string {
	for _, f := range v.fields {
		if f.name == name {
			return f.input.Value()
		}
	}
	return ""
}

func (v *authView) setWidth(width int) {
	w := min(width-24, 48)
	if w < 16 {
		w = 16
	}
	for i := range v.fields {
		v.fields[i].input.Width = w
	}
}

func (v authView) loginForm() forms.LoginForm {
	return forms.LoginForm{Email: v.value("email"), Password: v.value("password")}
}

func (v authView) signupForm() forms.SignupForm {
	return forms.SignupForm{
		FullName: v.value("fullName"),
		Email:    v.value("email"),
		Password: v.value("password"),
		Age:      v.value("age"),
		Gender:   v.value("gender"),
	}
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.auth.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.SwitchForm):
		if m.auth.signup {
			return m.fire(nav.EventChooseLogin)
		}
		return m.fire(nav.EventChooseSignup)
	case key.Matches(msg, m.keys.NextItem, m.keys.Down):
		cmd := m.auth.move(1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevItem, m.keys.Up):
		cmd := m.auth.move(-1)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		return m.submitAuth()
	}

	var cmd tea.Cmd
	f := &m.auth.fields[m.auth.focus]
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

// submitAuth validates locally; an invalid form never reaches the backend.
func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	m.auth.err = ""
	if m.auth.signup {
		form := m.auth.signupForm()
		if errs := form.Validate(); len(errs) > 0 {
			m.auth.errs = errs
			return m, nil
		}
		m.auth.errs = nil
		m.auth.busy = true
		m.busy = true
		ctx, sess := m.ctx, m.deps.Session
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			_, err := sess.Signup(ctx, form)
			return authMsg{signup: true, err: err}
		})
	}

	form := m.auth.loginForm()
	if errs := form.Validate(); len(errs) > 0 {
		m.auth.errs = errs
		return m, nil
	}
	m.auth.errs = nil
	m.auth.busy = true
	m.busy = true
	ctx, sess := m.ctx, m.deps.Session
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := sess.Login(ctx, form.Email, form.Password)
		return authMsg{err: err}
	})
}

func (m Model) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	m.auth.busy = false
	m.busy = false
	if msg.err != nil {
		if errs, ok := forms.AsValidation(msg.err); ok {
			m.auth.errs = errs
		} else {
			// A 401 here means bad credentials, not an expired session.
			m.auth.err = api.DetailOf(msg.err)
		}
		m.logger.Info("authentication failed")
		return m.fire(nav.EventAuthFailed)
	}

	m.deps.Chat.Reset()
	m.chat = newChatView()
	next, cmd := m.fire(nav.EventAuthOK)
	greeting := next.toast(components.ToastKindSuccess, "Welcome, "+m.deps.Session.DisplayName())
	return next, tea.Batch(cmd, greeting)
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) viewAuth() string {
	t := m.theme
	v := m.auth

	title := "Sign in to HealthMate"
	alt := "No account? " + t.ShortcutKey.Render(m.keys.SwitchForm.Help().Key) + t.Muted.Render(" to create one")
	if v.signup {
		title = "Create your HealthMate account"
		alt = "Have an account? " + t.ShortcutKey.Render(m.keys.SwitchForm.Help().Key) + t.Muted.Render(" to sign in")
	}

	rows := []string{t.HeaderTitle.Render(title), ""}
	for i, f := range v.fields {
		label := t.FieldLabel
		if i == v.focus {
			label = t.FieldLabelFocused
		}
		rows = append(rows, label.Render(f.label), "  "+f.input.View())
		if e := v.errs.For(f.name); e != "" {
			rows = append(rows, t.FieldError.Render("  "+e))
		}
		rows = append(rows, "")
	}
	if v.err != "" {
		rows = append(rows, t.ErrorStyle.Render(v.err), "")
	}
	if v.busy {
		action := "Signing in..."
		if v.signup {
			action = "Creating account..."
		}
		rows = append(rows, m.spinner.View()+" "+t.ThinkingText.Render(action))
	} else {
		rows = append(rows, t.Muted.Render(alt))
	}

	card := t.Card.Render(strings.Join(rows, "\n"))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, card)
}
