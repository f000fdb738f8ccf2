// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"fmt"
	"strings"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// cannedAnswer is returned when any of its keywords appears in a question.
type cannedAnswer struct {
	keywords   []string
	appliance  string // empty matches every appliance
	answer     string
	confidence float64
}

var answers = []cannedAnswer{
	{
		keywords:  []string{"ice maker", "ice"},
		appliance: "refrigerator",
		answer: "**Ice maker problems** are usually caused by the water supply.\n\n" +
			"1. Check the water line behind the unit for kinks.\n" +
			"2. Make sure the ice maker switch is **on**.\n" +
			"3. Replace the water filter if it is older than six months.",
		confidence: 0.86,
	},
	{
		keywords: []string{"leak", "water on the floor", "puddle"},
		answer: "Check the water line and the drain hose for loose connections.\n\n" +
			"- Tighten fittings by hand, then a quarter turn with pliers.\n" +
			"- Inspect the door gasket for tears.\n" +
			"- If water pools *under* the unit, the drain pan may be cracked.",
		confidence: 0.82,
	},
	{
		keywords:  []string{"warm", "not cold", "temperature", "cooling"},
		appliance: "refrigerator",
		answer: "Set the fridge to **37°F (3°C)** and the freezer to **0°F (-18°C)**.\n\n" +
			"Clean the condenser coils and keep at least two inches of clearance " +
			"behind the unit. Allow 24 hours for the temperature to settle.",
		confidence: 0.9,
	},
	{
		keywords:  []string{"drain", "won't drain", "standing water"},
		appliance: "washing-machine",
		answer: "Clean the **drain pump filter** behind the lower front panel.\n\n" +
			"Place a towel and a shallow tray underneath before opening it, then " +
			"run a *Drain & Spin* cycle to confirm the fix.",
		confidence: 0.88,
	},
	{
		keywords: []string{"noise", "noisy", "loud", "rattle", "vibrat"},
		answer: "Loud operation is most often a levelling problem.\n\n" +
			"1. Check the unit with a spirit level and adjust the feet.\n" +
			"2. Make sure nothing is touching the back panel.\n" +
			"3. For washers, spread heavy items evenly around the drum.",
		confidence: 0.74,
	},
	{
		keywords: []string{"smell", "odor", "odour", "mold", "mould"},
		answer: "Run a maintenance cycle and wipe the seals with a mild vinegar solution.\n\n" +
			"Leave the door ajar between uses so moisture can escape.",
		confidence: 0.79,
	},
	{
		keywords: []string{"error code", "error", "code"},
		answer: "Write down the code shown on the display and look it up in the " +
			"*Troubleshooting* chapter of the manual. Most codes clear after " +
			"unplugging the unit for one minute.",
		confidence: 0.61,
	},
}

// answerFor picks a canned answer for the question. The single retrieval
// hit names the manual for the selection.
func answerFor(question, appliance, brand string) (string, []source, float64) {
	q := strings.ToLower(question)
	name := fmt.Sprintf("%s %s Manual", model.BrandName(brand), model.ApplianceName(appliance))

	for i, a := range answers {
		if a.appliance != "" && a.appliance != appliance {
			continue
		}
		for _, k := range a.keywords {
			if strings.Contains(q, k) {
				hit := source{
					FileName: name,
					ChunkID:  i,
					Distance: 1 - a.confidence,
					Text:     firstLine(a.answer),
				}
				return a.answer, []source{hit}, a.confidence
			}
		}
	}

	return fmt.Sprintf("I could not find that in the %s manual. Try describing the "+
		"symptom, for example *\"the %s is leaking\"* or *\"it makes a loud noise\"*.",
		name, strings.ToLower(model.ApplianceName(appliance))), nil, 0.3
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
