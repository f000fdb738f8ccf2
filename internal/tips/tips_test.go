// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

func titles(tips []model.Tip) []string {
	out := make([]string, len(tips))
	for i, t := range tips {
		out[i] = t.Title
	}
	return out
}

func TestResolveStaticRefrigerator(t *testing.T) {
	got := Resolve("refrigerator", "lg", nil)
	require.Len(t, got, 3)
	assert.Equal(t, []string{
		"LG Temperature Settings",
		"Energy Efficiency Check",
		"Water Filter Replacement",
	}, titles(got), "medium before low, stable within medium")
	assert.Contains(t, got[0].Description, "37-40°F")
}

func TestResolveStaticWashingMachine(t *testing.T) {
	got := Resolve("washing-machine", "samsung", nil)
	assert.Equal(t, []string{"Load Settings", "Common Issues", "Monthly Maintenance"}, titles(got))
	assert.Equal(t, model.UrgencyHigh, got[0].Urgency)
	assert.Equal(t, model.UrgencyMedium, got[2].Urgency)
}

func TestResolveBackendWins(t *testing.T) {
	backend := []model.Tip{
		{Title: "Low one", Urgency: model.UrgencyLow},
		{Title: "High one", Urgency: model.UrgencyHigh},
	}
	got := Resolve("refrigerator", "lg", backend)
	assert.Equal(t, []string{"High one", "Low one"}, titles(got))
	assert.Equal(t, "Low one", backend[0].Title, "input not reordered")
}

func TestResolveUnknownAppliance(t *testing.T) {
	got := Resolve("dishwasher", "lg", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStaticWithoutBrand(t *testing.T) {
	got := Static("refrigerator", "")
	assert.Equal(t, "Your Temperature Settings", got[0].Title)
}

func TestSortByUrgencyIsStable(t *testing.T) {
	in := []model.Tip{
		{Title: "a", Urgency: model.UrgencyMedium},
		{Title: "b", Urgency: model.UrgencyHigh},
		{Title: "c", Urgency: model.UrgencyMedium},
		{Title: "d", Urgency: model.UrgencyLow},
		{Title: "e", Urgency: model.UrgencyHigh},
	}
	SortByUrgency(in)
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, titles(in))
}

func TestQuickQuestions(t *testing.T) {
	assert.Equal(t, []string{
		"My LG Refrigerator is making strange noises",
		"How do I clean my LG Refrigerator?",
		"Refrigerator not working properly",
	}, QuickQuestions("refrigerator", "lg"))
	assert.Nil(t, QuickQuestions("refrigerator", ""))
}
