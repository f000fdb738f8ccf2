// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the terminal UI.

# Color System (colors.go)

Every color is a Lip Gloss AdaptiveColor, so one palette serves dark and
light terminals:

	Blue    - brand accent, user messages, focus
	Teal    - assistant messages, selection
	Emerald - success, low urgency
	Amber   - warnings, medium urgency, dictation
	Rose    - errors, high urgency

# Themes (theme.go)

NewTheme takes the configured mode. "dark" and "light" pin the adaptive
colors to one side; "auto" asks the terminal through termenv.

	theme := styles.NewTheme("auto")
	title := theme.HeaderTitle.Render("ApplianceAI")
*/
package styles
