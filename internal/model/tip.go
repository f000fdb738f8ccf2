// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Urgency labels how soon a maintenance tip should be acted on.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank orders urgencies for sorting; higher is more urgent. Unknown values
// rank below low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// ParseUrgency maps free-form backend values onto the known urgencies.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "urgent", "critical":
		return UrgencyHigh
	case "medium", "normal", "moderate":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Tip is a short, actionable maintenance suggestion.
type Tip struct {
	Icon        string  `json:"icon,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Urgency     Urgency `json:"urgency"`
}
