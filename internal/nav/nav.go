// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav is the screen state machine of the terminal client.
//
// Exactly one Screen is active. Transitions are driven by Events through a
// fixed table; any pair not in the table returns ErrInvalidTransition and
// leaves the active screen unchanged.
package nav

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidTransition is returned for an event the current screen does not
// handle.
var ErrInvalidTransition = errors.New("invalid screen transition")

// ErrUnknownScreen is returned by Parse for an unrecognized name.
var ErrUnknownScreen = errors.New("unknown screen")

// =============================================================================
// SCREENS
// =============================================================================

// Screen is a top-level view.
type Screen int

const (
	ScreenSplash Screen = iota
	ScreenLoading
	ScreenLogin
	ScreenSignup
	ScreenOnboarding
	ScreenChat
	ScreenHistory
	ScreenProfile
	ScreenAnalytics
)

var screenNames = [...]string{
	ScreenSplash:     "splash",
	ScreenLoading:    "loading",
	ScreenLogin:      "login",
	ScreenSignup:     "signup",
	ScreenOnboarding: "onboarding",
	ScreenChat:       "chat",
	ScreenHistory:    "chat-history",
	ScreenProfile:    "profile",
	ScreenAnalytics:  "analytics",
}

// Screens lists every screen in declaration order.
func Screens() []Screen {
	out := make([]Screen, len(screenNames))
	for i := range screenNames {
		out[i] = Screen(i)
	}
	return out
}

func (s Screen) String() string {
	if s < 0 || int(s) >= len(screenNames) {
		return fmt.Sprintf("Screen(%d)", int(s))
	}
	return screenNames[s]
}

// Authenticated reports whether the screen is only reachable when signed in.
func (s Screen) Authenticated() bool {
	switch s {
	case ScreenOnboarding, ScreenChat, ScreenHistory, ScreenProfile, ScreenAnalytics:
		return true
	}
	return false
}

// Parse returns the screen named s. "dashboard" is an alias for chat.
func Parse(s string) (Screen, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "dashboard" {
		return ScreenChat, nil
	}
	for i, n := range screenNames {
		if n == name {
			return Screen(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScreen, s)
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is a navigation trigger.
type Event int

const (
	EventValidated Event = iota
	EventInvalid
	EventChooseLogin
	EventChooseSignup
	EventAuthOK
	EventAuthFailed
	EventFinish
	EventSkip
	EventBack
	EventOpenHistory
	EventSelectChat
	EventOpenProfile
	EventOpenAnalytics
	EventLogout
)

var eventNames = [...]string{
	EventValidated:     "validated",
	EventInvalid:       "invalid",
	EventChooseLogin:   "choose-login",
	EventChooseSignup:  "choose-signup",
	EventAuthOK:        "auth-ok",
	EventAuthFailed:    "auth-failed",
	EventFinish:        "finish",
	EventSkip:          "skip",
	EventBack:          "back",
	EventOpenHistory:   "open-history",
	EventSelectChat:    "select-chat",
	EventOpenProfile:   "open-profile",
	EventOpenAnalytics: "open-analytics",
	EventLogout:        "logout",
}

// Events lists every event in declaration order.
func Events() []Event {
	out := make([]Event, len(eventNames))
	for i := range eventNames {
		out[i] = Event(i)
	}
	return out
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// =============================================================================
// TRANSITION TABLE
// =============================================================================

type edge struct {
	from  Screen
	event Event
}

var transitions = map[edge]Screen{
	{ScreenLoading, EventValidated}: ScreenChat,
	{ScreenLoading, EventInvalid}:   ScreenSplash,

	{ScreenSplash, EventChooseLogin}:  ScreenLogin,
	{ScreenSplash, EventChooseSignup}: ScreenSignup,

	{ScreenLogin, EventAuthOK}:       ScreenChat,
	{ScreenLogin, EventAuthFailed}:   ScreenLogin,
	{ScreenLogin, EventChooseSignup}: ScreenSignup,

	{ScreenSignup, EventAuthOK}:      ScreenOnboarding,
	{ScreenSignup, EventAuthFailed}:  ScreenSignup,
	{ScreenSignup, EventChooseLogin}: ScreenLogin,

	{ScreenOnboarding, EventFinish}: ScreenChat,
	{ScreenOnboarding, EventSkip}:   ScreenChat,
	{ScreenOnboarding, EventBack}:   ScreenSplash,

	{ScreenChat, EventOpenHistory}:    ScreenHistory,
	{ScreenHistory, EventSelectChat}:  ScreenChat,
	{ScreenHistory, EventBack}:        ScreenChat,
	{ScreenProfile, EventBack}:        ScreenChat,
	{ScreenAnalytics, EventBack}:      ScreenChat,
	{ScreenChat, EventOpenProfile}:    ScreenProfile,
	{ScreenHistory, EventOpenProfile}: ScreenProfile,

	{ScreenAnalytics, EventOpenProfile}: ScreenProfile,
	{ScreenChat, EventOpenAnalytics}:    ScreenAnalytics,
	{ScreenProfile, EventOpenAnalytics}: ScreenAnalytics,
	{ScreenHistory, EventOpenAnalytics}: ScreenAnalytics,
}

func init() {
	for _, s := range Screens() {
		if s.Authenticated() {
			transitions[edge{s, EventLogout}] = ScreenLogin
		}
	}
}

// Next returns the screen reached from from on ev.
func Next(from Screen, ev Event) (Screen, error) {
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// Initial returns the start screen: loading when a stored token must be
// validated, splash otherwise.
func Initial(hasToken bool) Screen {
	if hasToken {
		return ScreenLoading
	}
	return ScreenSplash
}

// =============================================================================
// NAVIGATOR
// =============================================================================

// Navigator holds the active screen.
type Navigator struct {
	mu      sync.Mutex
	current Screen
}

// New creates a navigator at the initial screen for hasToken.
func New(hasToken bool) *Navigator {
	return &Navigator{current: Initial(hasToken)}
}

// Current returns the active screen.
func (n *Navigator) Current() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Fire applies ev. On error the active screen is unchanged.
func (n *Navigator) Fire(ev Event) (Screen, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	to, err := Next(n.current, ev)
	if err != nil {
		return n.current, err
	}
	n.current = to
	return to, nil
}

// Can reports whether ev is valid on the active screen.
func (n *Navigator) Can(ev Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := transitions[edge{n.current, ev}]
	return ok
}
