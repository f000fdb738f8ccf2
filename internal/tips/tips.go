// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tips resolves the maintenance tips shown next to a conversation.
//
// Backend tips win whenever the backend returns any; otherwise a static
// table keyed by appliance supplies fallbacks. Output is always ordered by
// urgency, high first, keeping the original order within an urgency.
package tips

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// staticTip is a fallback entry; Title may contain one %s for the brand name.
type staticTip struct {
	icon        string
	title       string
	description string
	urgency     model.Urgency
}

var static = map[string][]staticTip{
	"refrigerator": {
		{"🌡", "%s Temperature Settings", "Keep the fridge at 37-40°F and the freezer at 0-5°F.", model.UrgencyMedium},
		{"💧", "Water Filter Replacement", "Replace the water filter every 6 months.", model.UrgencyLow},
		{"⚡", "Energy Efficiency Check", "Clean the condenser coils every 3 months.", model.UrgencyMedium},
	},
	"washing-machine": {
		{"🧺", "Load Settings", "Use the appropriate water level for each load size.", model.UrgencyHigh},
		{"🧽", "Monthly Maintenance", "Run a cleaning cycle once a month.", model.UrgencyMedium},
		{"🔧", "Common Issues", "Check the door seal and lint filter regularly.", model.UrgencyHigh},
	},
}

// Resolve returns the tips for a selection. backend takes precedence when
// non-empty. An unknown appliance with no backend tips yields an empty list.
func Resolve(appliance, brand string, backend []model.Tip) []model.Tip {
	var out []model.Tip
	if len(backend) > 0 {
		out = make([]model.Tip, len(backend))
		copy(out, backend)
	} else {
		out = Static(appliance, brand)
	}
	SortByUrgency(out)
	return out
}

// Static returns the fallback tips for appliance with the brand's display
// name substituted. The result is in table order.
func Static(appliance, brand string) []model.Tip {
	rows, ok := static[appliance]
	if !ok {
		return []model.Tip{}
	}
	brandName := "Your"
	if brand != "" {
		brandName = model.BrandName(brand)
	}
	out := make([]model.Tip, 0, len(rows))
	for _, r := range rows {
		title := r.title
		if strings.Contains(title, "%s") {
			title = fmt.Sprintf(title, brandName)
		}
		out = append(out, model.Tip{
			Icon:        r.icon,
			Title:       title,
			Description: r.description,
			Urgency:     r.urgency,
		})
	}
	return out
}

// SortByUrgency orders tips high, medium, low in place. Equal urgencies keep
// their relative order.
func SortByUrgency(tips []model.Tip) {
	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Urgency.Rank() > tips[j].Urgency.Rank()
	})
}

// QuickQuestions returns suggested prompts for a selection, or nil when the
// selection is incomplete.
func QuickQuestions(appliance, brand string) []string {
	if appliance == "" || brand == "" {
		return nil
	}
	a := model.ApplianceName(appliance)
	b := model.BrandName(brand)
	return []string{
		fmt.Sprintf("My %s %s is making strange noises", b, a),
		fmt.Sprintf("How do I clean my %s %s?", b, a),
		fmt.Sprintf("%s not working properly", a),
	}
}
