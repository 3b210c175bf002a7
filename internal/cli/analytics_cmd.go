// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/healthmate/healthmate-tui/internal/ui/components"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// HandleAnalytics prints the backend's feedback summary. The endpoint is
// public, so no sign-in is needed.
func HandleAnalytics(ctx context.Context, env *Env) error {
	a, err := env.Client.Analytics(ctx)
	if err != nil {
		return err
	}
	if env.Args.JSON {
		return NewJSONResponse("analytics", a).Write(env.Out)
	}

	// Plain bars so piped output stays readable.
	bar := func(ratio float64) string {
		return SuccessStyle.UnsetBold().Render(styles.RenderProgressBar(30, ratio*100))
	}

	w := env.Out
	fmt.Fprintln(w, TitleStyle.Render("Feedback summary"))
	fmt.Fprintln(w, RenderField("Interactions", components.FormatCount(a.TotalInteractions)))
	fmt.Fprintln(w, RenderField("With feedback", components.FormatCount(a.TotalWithFeedback)))
	fmt.Fprintln(w, RenderField("Thumbs up", components.FormatCount(a.TotalThumbsUp)))
	fmt.Fprintln(w, RenderField("Thumbs down", components.FormatCount(a.TotalThumbsDown)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s %5.1f%%\n", RenderLabel("Approval"), bar(a.ThumbsUpRate), a.ThumbsUpRate*100)
	fmt.Fprintf(w, "  %s%s %5.1f%%\n", RenderLabel("Rated"), bar(a.FeedbackRate()), a.FeedbackRate()*100)
	return nil
}
