// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/profile"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// AnalyticsSource fetches the feedback summary.
type AnalyticsSource interface {
	Analytics(ctx context.Context) (model.Analytics, error)
}

// Deps are the services the TUI drives. All fields except ConfigPath and
// Logger are required.
type Deps struct {
	Config    *config.Config
	Session   *session.Store
	Chat      *chat.Controller
	History   *history.Bridge
	Profile   *profile.Submitter
	Analytics AnalyticsSource
	Theme     *styles.Theme
	Logger    *zap.Logger

	// ConfigPath is watched for changes when set.
	ConfigPath string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model. It owns the navigator and renders
// the active screen.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	deps   Deps
	cfg    *config.Config
	logger *zap.Logger
	theme  *styles.Theme
	keys   KeyMap
	help   help.Model
	nav    *nav.Navigator

	width  int
	height int

	header   *components.Header
	status   *components.StatusBar
	toasts   *components.ToastManager
	overlay  components.ExpiryOverlay
	expiry   *session.ExpiryWatch
	spinner  spinner.Model
	markdown components.MarkdownRenderer

	showHelp     bool
	toastTicking bool
	busy         bool
	lastErr      string
	cfgCh        <-chan configReloadedMsg

	splash     splashView
	auth       authView
	onboarding onboardingView
	chat       chatView
	history    historyView
	profile    profileView
	analytics  analyticsView
	prompt     *prompt
}

// New creates the root model. The initial screen is loading when the
// session holds a restored token and splash otherwise.
func New(parent context.Context, deps Deps) Model {
	ctx, cancel := context.WithCancel(parent)
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := deps.Theme
	if theme == nil {
		mode, _ := styles.ParseMode(cfg.UI.Theme)
		theme = styles.NewTheme(mode)
	}

	s := spinner.New()
	s.Spinner = styles.DotsSpinner.Bubble()
	s.Style = theme.Spinner

	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		deps:    deps,
		cfg:     cfg,
		logger:  logging.OrNop(deps.Logger).Named("tui"),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		nav:     nav.New(deps.Session.IsAuthenticated()),
		width:   80,
		height:  24,
		toasts:  components.NewToastManager(),
		overlay: components.NewExpiryOverlay(),
		expiry:  session.NewExpiryWatch(deps.Session, session.DefaultWarningBefore),
		spinner: s,
		splash:  newSplashView(),
		auth:    newAuthView(false),
		chat:    newChatView(),
	}
	m.applyTheme(theme)
	m.syncUser()

	if deps.ConfigPath != "" {
		ch, err := watchConfig(ctx, deps.ConfigPath)
		if err != nil {
			m.logger.Warn("config watch disabled", zap.Error(err))
		}
		m.cfgCh = ch
	}
	return m
}

// Init validates a restored token and starts the background ticks.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{session.ExpiryTickCmd()}
	if m.nav.Current() == nav.ScreenLoading {
		cmds = append(cmds, m.validateCmd(), m.spinner.Tick)
	}
	if m.cfgCh != nil {
		cmds = append(cmds, waitConfig(m.ctx, m.cfgCh))
	}
	return tea.Batch(cmds...)
}

// Close cancels in-flight requests.
func (m Model) Close() {
	m.cancel()
}

// Screen returns the active screen.
func (m Model) Screen() nav.Screen {
	return m.nav.Current()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Sweep()
		if len(m.toasts.Toasts()) == 0 {
			m.toastTicking = false
			return m, nil
		}
		return m, components.ToastTickCmd()

	case session.ExpiryTickMsg:
		return m, m.expiry.HandleTick(msg)

	case session.ExpiryWarningMsg:
		m.overlay.ShowWarning(msg.Remaining)
		return m, nil

	case session.ExpiredMsg:
		m.overlay.ShowExpired()
		m.logger.Info("token expired")
		return m, m.logoutCmd()

	case resultMsg:
		return m.handleResult(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay.IsVisible() {
		expired := m.overlay.IsExpired()
		m.overlay.Hide()
		if expired {
			return m.signedOut()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.resize(m.width, m.height)
		return m, nil
	}

	if m.prompt != nil {
		return m.updatePrompt(msg)
	}

	switch m.nav.Current() {
	case nav.ScreenSplash:
		return m.updateSplash(msg)
	case nav.ScreenLogin, nav.ScreenSignup:
		return m.updateAuth(msg)
	case nav.ScreenOnboarding:
		return m.updateOnboarding(msg)
	case nav.ScreenChat:
		return m.updateChat(msg)
	case nav.ScreenHistory:
		return m.updateHistory(msg)
	case nav.ScreenProfile:
		return m.updateProfile(msg)
	case nav.ScreenAnalytics:
		return m.updateAnalytics(msg)
	}
	return m, nil
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validatedMsg:
		return m.handleValidated(msg)
	case authMsg:
		return m.handleAuth(msg)
	case exchangeMsg:
		return m.handleExchange(msg)
	case feedbackMsg:
		return m.handleFeedback(msg)
	case savedMsg:
		return m.handleSaved(msg)
	case emailedMsg:
		return m.handleEmailed(msg)
	case historyListMsg:
		return m.handleHistoryList(msg)
	case chatLoadedMsg:
		return m.handleChatLoaded(msg)
	case profileSavedMsg:
		return m.handleProfileSaved(msg)
	case analyticsMsg:
		return m.handleAnalytics(msg)
	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", zap.Error(msg.err))
		}
		return m, nil
	case configReloadedMsg:
		return m.handleConfigReloaded(msg)
	case scrollMsg:
		if msg.seq == m.chat.scrollSeq {
			m.chat.viewport.GotoBottom()
		}
		return m, nil
	}
	return m, nil
}

// =============================================================================
// NAVIGATION
// =============================================================================

// fire applies ev and prepares the screen it leads to. Invalid events are
// logged and ignored.
func (m Model) fire(ev nav.Event) (Model, tea.Cmd) {
	from := m.nav.Current()
	to, err := m.nav.Fire(ev)
	if err != nil {
		m.logger.Debug("navigation ignored", zap.Error(err))
		return m, nil
	}
	m.logger.Debug("navigate", zap.Stringer("from", from), zap.Stringer("to", to), zap.Stringer("event", ev))
	m.lastErr = ""
	m.syncUser()

	var cmd tea.Cmd
	switch to {
	case nav.ScreenSplash:
		m.splash = newSplashView()
	case nav.ScreenLogin:
		if from != nav.ScreenLogin {
			m.auth = newAuthView(false)
		}
		cmd = m.auth.focusCmd()
	case nav.ScreenSignup:
		if from != nav.ScreenSignup {
			m.auth = newAuthView(true)
		}
		cmd = m.auth.focusCmd()
	case nav.ScreenOnboarding:
		m.onboarding = newOnboardingView(m.currentProfile())
		cmd = m.onboarding.list.focus()
	case nav.ScreenChat:
		cmd = tea.Batch(m.chat.input.Focus(), m.refreshChat())
	case nav.ScreenHistory:
		m.history = historyView{loading: true}
		m.busy = true
		cmd = tea.Batch(m.listCmd(), m.spinner.Tick)
	case nav.ScreenProfile:
		m.profile = newProfileView(m.currentProfile())
		cmd = m.profile.focusCmd()
	case nav.ScreenAnalytics:
		m.analytics = newAnalyticsView(m.width, m.theme.IsDark)
		m.analytics.loading = true
		m.busy = true
		cmd = tea.Batch(m.analyticsCmd(), m.spinner.Tick)
	}
	m.resize(m.width, m.height)
	return m, cmd
}

// signedOut resets the conversation and shows the login screen.
func (m Model) signedOut() (tea.Model, tea.Cmd) {
	m.deps.Chat.Reset()
	m.chat = newChatView()
	m.prompt = nil
	if m.nav.Current().Authenticated() {
		return m.fire(nav.EventLogout)
	}
	m.syncUser()
	return m, nil
}

func (m Model) currentProfile() model.UserProfile {
	p, ok := m.deps.Session.Profile()
	if !ok {
		u := m.deps.Session.User()
		p = model.UserProfile{Name: m.deps.Session.DisplayName(), Email: u.Email}
	}
	return p
}

func (m *Model) syncUser() {
	if m.deps.Session.IsAuthenticated() {
		m.header.User = m.deps.Session.DisplayName()
	} else {
		m.header.User = ""
	}
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (m *Model) toast(kind components.ToastKind, text string) tea.Cmd {
	m.toasts.Add(kind, text)
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}

// fail records err for the status bar and shows its user-facing text.
func (m *Model) fail(what string, err error) tea.Cmd {
	detail := userMessage(err)
	m.lastErr = detail
	m.logger.Warn(what+" failed", zap.Error(err))
	return m.toast(components.ToastKindError, detail)
}

// userMessage maps local sentinel errors to text; backend errors use the
// server detail.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNoToken), api.IsAuth(err):
		return "Please sign in again."
	case errors.Is(err, history.ErrEmptyConversation):
		return "There is nothing to save yet."
	case errors.Is(err, history.ErrNotSaved):
		return "Save the conversation before sending it."
	case errors.Is(err, chat.ErrAlreadyRated):
		return "You already rated this reply."
	case errors.Is(err, chat.ErrExchangePending):
		return "Please wait for the current reply."
	case errors.Is(err, chat.ErrStaleExchange):
		return "The chat was saved, but you had already moved on to another conversation."
	case errors.Is(err, profile.ErrNothingToSubmit):
		return "There are no changes to save."
	}
	return api.DetailOf(err)
}

func (m Model) spinning() bool {
	return m.busy || m.deps.Chat.Pending() || m.nav.Current() == nav.ScreenLoading
}

// =============================================================================
// THEME AND CONFIG
// =============================================================================

func (m *Model) applyTheme(theme *styles.Theme) {
	m.theme = theme
	user := ""
	if m.header != nil {
		user = m.header.User
	}
	m.header = components.NewHeader(theme)
	m.header.User = user
	m.status = components.NewStatusBar(theme)
	m.spinner.Style = theme.Spinner
	m.resize(m.width, m.height)
}

// buildMarkdown creates the glamour renderer for the current width.
func (m *Model) buildMarkdown() {
	if !m.cfg.UI.RenderMarkdown {
		m.markdown = nil
		return
	}
	wrap := m.width - 12
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		m.markdown = nil
		return
	}
	m.markdown = r
}

func (m Model) handleConfigReloaded(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	next := waitConfig(m.ctx, m.cfgCh)
	if msg.err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.err))
		notice := m.toast(components.ToastKindWarning, "Config file has errors; keeping current settings.")
		return m, tea.Batch(next, notice)
	}
	m.cfg = msg.cfg
	mode, err := styles.ParseMode(msg.cfg.UI.Theme)
	if err != nil {
		m.logger.Warn("invalid theme in config", zap.Error(err))
	}
	if mode != m.theme.Mode {
		m.applyTheme(styles.NewTheme(mode))
	} else {
		m.resize(m.width, m.height)
	}
	m.logger.Info("config reloaded", zap.String("theme", string(mode)))
	cmd := tea.Batch(next, m.refreshChat(), m.toast(components.ToastKindStatus, "Settings reloaded"))
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.overlay.SetSize(width, height)
	m.help.Width = width
	m.buildMarkdown()

	body := height - lipgloss.Height(m.header.View()) - lipgloss.Height(m.status.View())
	if m.showHelp {
		body -= lipgloss.Height(m.help.View(m.keys))
	}
	m.chat.setSize(width, body)
	m.auth.setWidth(width)
	m.onboarding.list.setWidth(width)
	m.profile.setWidth(width)
	m.analytics.setWidth(width)
	if m.prompt != nil {
		m.prompt.input.Width = min(width-12, 60)
	}
	if m.nav != nil && m.nav.Current() == nav.ScreenChat {
		m.chat.viewport.SetContent(m.renderMessages())
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active screen between the header and the status bar.
func (m Model) View() string {
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	screen := m.nav.Current()
	m.header.Subtitle = m.subtitle(screen)

	var body string
	switch screen {
	case nav.ScreenSplash:
		body = m.viewSplash()
	case nav.ScreenLoading:
		body = m.viewLoading()
	case nav.ScreenLogin, nav.ScreenSignup:
		body = m.viewAuth()
	case nav.ScreenOnboarding:
		body = m.viewOnboarding()
	case nav.ScreenChat:
		body = m.viewChat()
	case nav.ScreenHistory:
		body = m.viewHistory()
	case nav.ScreenProfile:
		body = m.viewProfile()
	case nav.ScreenAnalytics:
		body = m.viewAnalytics()
	}
	if m.prompt != nil {
		body = m.viewPrompt()
	}
	if stack := components.RenderToastStack(m.toasts.Toasts(), m.width, time.Now()); stack != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, stack, body)
	}

	parts := []string{m.header.View(), m.fit(body)}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.statusView(screen))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// fit pads or clips body to the space between header and status bar.
func (m Model) fit(body string) string {
	avail := m.height - lipgloss.Height(m.header.View()) - lipgloss.Height(m.status.View())
	if m.showHelp {
		avail -= lipgloss.Height(m.help.View(m.keys))
	}
	if avail < 1 {
		return body
	}
	lines := strings.Split(body, "\n")
	if len(lines) > avail {
		lines = lines[:avail]
	}
	for len(lines) < avail {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) subtitle(screen nav.Screen) string {
	switch screen {
	case nav.ScreenLogin:
		return "Sign in"
	case nav.ScreenSignup:
		return "Create account"
	case nav.ScreenOnboarding:
		return "Health profile"
	case nav.ScreenChat:
		return m.deps.Chat.Title()
	case nav.ScreenHistory:
		return "Saved conversations"
	case nav.ScreenProfile:
		return "Profile"
	case nav.ScreenAnalytics:
		return "Feedback analytics"
	}
	return ""
}

func (m Model) statusView(screen nav.Screen) string {
	switch {
	case m.lastErr != "":
		m.status.Status = components.StatusError
	case m.deps.Chat.Pending():
		m.status.Status = components.StatusWaiting
	case m.busy || screen == nav.ScreenLoading:
		m.status.Status = components.StatusLoading
	default:
		m.status.Status = components.StatusReady
	}

	m.status.Detail = ""
	if m.spinning() {
		m.status.Detail = m.spinner.View()
	}
	if remaining, ok := m.expiry.Remaining(time.Now()); ok && remaining <= 10*time.Minute {
		m.status.Detail += " session " + session.FormatDuration(remaining)
	}
	m.status.Shortcuts = m.screenShortcuts(screen)
	return m.status.View()
}

func (m Model) screenShortcuts(screen nav.Screen) []components.Shortcut {
	k := m.keys
	if m.prompt != nil {
		return shortcuts(k.Submit, k.Back)
	}
	switch screen {
	case nav.ScreenSplash:
		return shortcuts(k.Down, k.Submit, k.Quit)
	case nav.ScreenLogin, nav.ScreenSignup:
		return shortcuts(k.Submit, k.NextItem, k.SwitchForm, k.Quit)
	case nav.ScreenOnboarding:
		return shortcuts(k.Submit, k.Skip, k.Back)
	case nav.ScreenChat:
		if m.chat.focus {
			return shortcuts(k.ThumbsUp, k.ThumbsDn, k.Back)
		}
		return shortcuts(k.Submit, k.Focus, k.Save, k.NewChat, k.Email, k.History, k.Profile, k.Analytics, k.Logout, k.Help)
	case nav.ScreenHistory:
		return shortcuts(k.Submit, k.Email, k.Refresh, k.Back)
	case nav.ScreenProfile:
		return shortcuts(k.Save, k.NextItem, k.Back)
	case nav.ScreenAnalytics:
		return shortcuts(k.Refresh, k.Back)
	}
	return shortcuts(k.Help, k.Quit)
}
