// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// Theme modes accepted by NewTheme.
const (
	ModeDark  = "dark"
	ModeLight = "light"
	ModeAuto  = "auto"
)

// Theme holds every style the UI renders with.
type Theme struct {
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER AND STATUS BAR
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarHint         lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	MessageLabel    lipgloss.Style
	Timestamp       lipgloss.Style
	MessageMeta     lipgloss.Style
	Typing          lipgloss.Style

	// ==========================================================================
	// COMPOSER
	// ==========================================================================

	Input            lipgloss.Style
	InputFocused     lipgloss.Style
	InputDisabled    lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	Listening        lipgloss.Style

	// ==========================================================================
	// RIGHT PANEL
	// ==========================================================================

	Panel          lipgloss.Style
	PanelTab       lipgloss.Style
	PanelTabActive lipgloss.Style
	TipTitle       lipgloss.Style
	TipBody        lipgloss.Style
	QuickQuestion  lipgloss.Style

	// ==========================================================================
	// FORMS AND PAGES
	// ==========================================================================

	WelcomeBox  lipgloss.Style
	WelcomeLogo lipgloss.Style
	FormBox     lipgloss.Style
	FormLabel   lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	Muted        lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NormalizeMode maps a configured theme onto a known mode; unknown values
// become auto.
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeDark:
		return ModeDark
	case ModeLight:
		return ModeLight
	default:
		return ModeAuto
	}
}

// NewTheme builds a theme for mode. dark and light pin the adaptive colors;
// auto detects the terminal background.
func NewTheme(mode string) *Theme {
	mode = NormalizeMode(mode)
	isDark := mode == ModeDark
	if mode == ModeAuto {
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle names the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// Urgency returns the style for a tip urgency.
func (t *Theme) Urgency(u model.Urgency) lipgloss.Style {
	switch u {
	case model.UrgencyHigh:
		return t.ErrorStyle
	case model.UrgencyMedium:
		return t.WarningStyle
	default:
		return t.SuccessStyle
	}
}

func (t *Theme) initStyles() {
	// Header and status bar
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	t.HeaderSubtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary).MarginBottom(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextSecondary).PaddingLeft(2)
	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Teal).
		PaddingLeft(1)
	t.SidebarHint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	// Transcript
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)
	t.MessageLabel = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.MessageMeta = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Typing = lipgloss.NewStyle().Foreground(Teal).Italic(true)

	// Composer
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputFocused = t.Input.BorderForeground(Blue)
	t.InputDisabled = t.Input.Foreground(TextMuted)
	t.CharCount = lipgloss.NewStyle().Foreground(TextMuted)
	t.CharCountWarning = lipgloss.NewStyle().Foreground(Amber)
	t.Listening = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	// Right panel
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PanelTab = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 1)
	t.PanelTabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Blue).
		Bold(true).
		Padding(0, 1)
	t.TipTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.TipBody = lipgloss.NewStyle().Foreground(TextSecondary)
	t.QuickQuestion = lipgloss.NewStyle().Foreground(Blue)

	// Pages
	t.WelcomeBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Blue).
		Padding(1, 4)
	t.WelcomeLogo = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3)
	t.FormLabel = lipgloss.NewStyle().Foreground(TextSecondary)

	// Status
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.SuccessStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Blue).Bold(true)
}
