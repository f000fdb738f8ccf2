// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
)

// Feature is one entry of the welcome screen's feature list.
type Feature struct {
	Title       string
	Description string
}

// Features is shown on the home page.
var Features = []Feature{
	{"Smart Query Answering", "Answers from your appliance manuals with step-by-step troubleshooting guides."},
	{"Proactive Maintenance Tips", "Maintenance schedules and tips that extend your appliance's lifespan."},
	{"Multi-Brand Support", "Works across appliance brands and models."},
	{"Local & Private", "Talks only to the backend you configure."},
}

// RenderWelcome draws the home page centered in width x height.
// authenticated picks the call to action.
func RenderWelcome(width, height int, authenticated bool, theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.WelcomeLogo.Render("ApplianceAI"))
	b.WriteString("\n")
	b.WriteString(theme.HeaderSubtitle.Render("Your appliance manuals, one question away"))
	b.WriteString("\n\n")

	for _, f := range Features {
		b.WriteString(theme.InfoStyle.Render("• " + f.Title))
		b.WriteString("\n")
		b.WriteString(theme.TipBody.PaddingLeft(2).Render(f.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cta := "Press enter to sign in"
	if authenticated {
		cta = "Press enter to start chatting"
	}
	b.WriteString(theme.ShortcutKey.Render(cta))
	b.WriteString(theme.ShortcutDesc.Render("  ·  q to quit"))

	box := theme.WelcomeBox.Render(b.String())
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
