// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - saved conversation commands.
//
// Command: history [subcommand]
// Aliases: chats
//
// Subcommands:
//   list (default)           List saved conversations, newest first
//   show <id>                Print a saved conversation
//   export <id>              Write a transcript file
//   email <id> --to ADDRESS  Send a saved conversation to a provider
//
// Examples:
//   healthmate history
//   healthmate history export 65f1c2 --format json --out visit.json
//   healthmate history email 65f1c2 --to dr.lee@clinic.example --subject "Follow-up"

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthmate/healthmate-tui/internal/export"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
	"github.com/healthmate/healthmate-tui/internal/util"
)

const historyTimeLayout = "Jan 2, 2006 3:04 PM"

// HandleHistory dispatches the history subcommands.
func HandleHistory(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	sub := p.Subcommand()

	switch strings.ToLower(sub) {
	case "", "list", "ls":
		return historyList(ctx, env)
	case "show", "view":
		return historyShow(ctx, env, p.Positional(1))
	case "export":
		return historyExport(ctx, env, p)
	case "email", "send":
		return historyEmail(ctx, env, p)
	}
	return NewUsageError("unknown history subcommand: "+sub,
		"Valid subcommands: list, show, export, email")
}

func historyList(ctx context.Context, env *Env) error {
	entries, err := env.History().List(ctx)
	if err != nil {
		return err
	}

	if env.Args.JSON {
		items := make([]HistoryItem, len(entries))
		for i, e := range entries {
			items[i] = HistoryItem{
				ID:           e.ID,
				Title:        e.Title,
				Preview:      e.Preview,
				Updated:      e.DisplayTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
				MessageCount: e.MessageCount,
			}
		}
		return NewJSONResponse("history list", items).Write(env.Out)
	}

	w := env.Out
	if len(entries) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No saved conversations yet."))
		return nil
	}
	width := GetTerminalWidth()
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Saved conversations (%d)", len(entries))))
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", SectionStyle.UnsetMarginTop().Render(Truncate(e.Title, width-30)), DimStyle.Render(e.ID))
		fmt.Fprintf(w, "  %s · %d messages\n", e.DisplayTime.Local().Format(historyTimeLayout), e.MessageCount)
		fmt.Fprintf(w, "  %s\n\n", DimStyle.Render(Truncate(util.OneLine(e.Preview), width-4)))
	}
	return nil
}

// fetchConversation loads a saved chat as a conversation.
func fetchConversation(ctx context.Context, env *Env, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, NewUsageError("missing conversation id", "Run 'healthmate history list' to see ids.")
	}
	saved, msgs, err := env.History().Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	conv := model.NewConversation()
	conv.ID = saved.ID
	conv.Title = saved.Title
	if !saved.CreatedAt.IsZero() {
		conv.CreatedAt = saved.CreatedAt.Time
	}
	if t := saved.DisplayTime(); !t.IsZero() {
		conv.UpdatedAt = t
	}
	conv.Messages = msgs
	return conv, nil
}

func historyShow(ctx context.Context, env *Env, id string) error {
	conv, err := fetchConversation(ctx, env, id)
	if err != nil {
		return err
	}
	if env.Args.JSON {
		return NewJSONResponse("history show", conv).Write(env.Out)
	}

	w := env.Out
	fmt.Fprintln(w, TitleStyle.Render(conv.DisplayTitle()))
	for i, msg := range conv.Messages {
		if i > 0 {
			fmt.Fprintln(w, RenderSeparatorAdaptive())
		}
		style := RoleAssistantStyle
		if msg.Role == model.RoleUser {
			style = RoleUserStyle
		}
		fmt.Fprintf(w, "%s  %s\n", style.Render(msg.Role.DisplayName()), DimStyle.Render(msg.Timestamp.Local().Format(historyTimeLayout)))
		fmt.Fprintln(w, RenderWrapped(ValueStyle, msg.Content))
	}
	return nil
}

func historyExport(ctx context.Context, env *Env, p *ArgParser) error {
	exporter, err := export.ForFormat(p.FlagOrDefault("format", "md"), export.DefaultOptions())
	if err != nil {
		return NewUsageError(err.Error(), "Valid formats: "+strings.Join(export.Formats, ", "))
	}
	conv, err := fetchConversation(ctx, env, p.Positional(1))
	if err != nil {
		return err
	}

	path, err := export.ToFile(conv, exporter, p.Flag("out"))
	if err != nil {
		return NewCommandError("history", "export", "could not write transcript", err)
	}
	if env.Args.JSON {
		return NewJSONResponse("history export", map[string]string{"path": path}).Write(env.Out)
	}
	env.infof("%s %s\n", styles.RenderSuccess("Wrote"), styles.RenderLink(path))
	return nil
}

func historyEmail(ctx context.Context, env *Env, p *ArgParser) error {
	id := p.Positional(1)
	if id == "" {
		return NewUsageError("missing conversation id", "Usage: healthmate history email <id> --to ADDRESS")
	}
	to := p.Flag("to")
	if to == "" {
		return NewUsageError("missing --to address", "Usage: healthmate history email <id> --to ADDRESS")
	}

	bridge := env.History()
	fallback := ""
	if p.Flag("subject") == "" {
		// The saved title is the default subject.
		if saved, _, err := bridge.Fetch(ctx, id); err == nil {
			fallback = saved.Title
		}
	}
	if err := bridge.Email(ctx, id, to, p.Flag("subject"), fallback); err != nil {
		return err
	}
	if env.Args.JSON {
		return NewJSONResponse("history email", map[string]string{"id": id, "to": to}).Write(env.Out)
	}
	env.infof("%s\n", styles.RenderSuccess("Sent to "+to))
	return nil
}
