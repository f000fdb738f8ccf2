// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// SELECTION SIDEBAR
// =============================================================================

// SidebarStage is the step of the appliance/brand selection flow.
type SidebarStage int

const (
	StageAppliance SidebarStage = iota
	StageBrand
	StageSelected
)

// Stage derives the flow step from the current selection.
func Stage(appliance, brand string) SidebarStage {
	switch {
	case appliance == "":
		return StageAppliance
	case brand == "":
		return StageBrand
	default:
		return StageSelected
	}
}

// Choice is one selectable sidebar row.
type Choice struct {
	ID    string
	Label string
	Icon  string
	Hint  string
}

// Choices lists the rows offered at the current stage. The selected stage
// offers none.
func Choices(appliance, brand string) []Choice {
	switch Stage(appliance, brand) {
	case StageAppliance:
		apps := model.Appliances()
		out := make([]Choice, 0, len(apps))
		for _, a := range apps {
			out = append(out, Choice{ID: a.ID, Label: a.Name, Icon: a.Icon, Hint: a.Description})
		}
		return out
	case StageBrand:
		a, ok := model.LookupAppliance(appliance)
		if !ok {
			return nil
		}
		out := make([]Choice, 0, len(a.Brands))
		for _, b := range a.Brands {
			out = append(out, Choice{ID: b.ID, Label: b.Name})
		}
		return out
	default:
		return nil
	}
}

// SidebarProps is everything the sidebar renders from.
type SidebarProps struct {
	Appliance string
	Brand     string
	Cursor    int
	Focused   bool
	Width     int
	Height    int
}

// RenderSidebar draws the selection flow: appliance list, brand list, then
// the selected context with a back hint.
func RenderSidebar(p SidebarProps, theme *styles.Theme) string {
	inner := p.Width - 3
	if inner < 10 {
		inner = 10
	}

	var lines []string
	switch Stage(p.Appliance, p.Brand) {
	case StageAppliance:
		lines = append(lines, theme.SidebarTitle.Render("Select an appliance"))
		lines = append(lines, renderChoices(Choices(p.Appliance, p.Brand), p, inner, theme)...)

	case StageBrand:
		lines = append(lines, theme.SidebarTitle.Render(util.Truncate(model.ApplianceName(p.Appliance), inner)))
		lines = append(lines, theme.FormLabel.Render("Select a brand"), "")
		lines = append(lines, renderChoices(Choices(p.Appliance, p.Brand), p, inner, theme)...)
		lines = append(lines, "", theme.SidebarHint.Render("esc  back"))

	case StageSelected:
		icon := ""
		if a, ok := model.LookupAppliance(p.Appliance); ok {
			icon = a.Icon + " "
		}
		lines = append(lines,
			theme.SidebarTitle.Render("Current context"),
			theme.SidebarItemSelected.Render(util.Truncate(icon+model.ApplianceName(p.Appliance), inner-2)),
			theme.SidebarItem.Render(util.Truncate(model.BrandName(p.Brand), inner-2)),
			"",
			theme.SidebarHint.Render("esc  change brand"),
		)
	}

	style := theme.Sidebar.Width(p.Width - 1)
	if p.Height > 0 {
		style = style.Height(p.Height)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func renderChoices(choices []Choice, p SidebarProps, width int, theme *styles.Theme) []string {
	var lines []string
	for i, c := range choices {
		label := c.Label
		if c.Icon != "" {
			label = c.Icon + " " + label
		}
		label = util.Truncate(label, width-2)
		if p.Focused && i == p.Cursor {
			lines = append(lines, theme.SidebarItemSelected.Render(label))
		} else {
			lines = append(lines, theme.SidebarItem.Render(label))
		}
		if c.Hint != "" {
			lines = append(lines, theme.SidebarHint.PaddingLeft(2).Render(util.Truncate(c.Hint, width-2)))
		}
	}
	return lines
}
