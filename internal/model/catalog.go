// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Brand is a manufacturer offered for an appliance.
type Brand struct {
	ID   string
	Name string
}

// Appliance is a supported appliance type and the brands offered for it.
type Appliance struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Brands      []Brand
}

var (
	brandLG      = Brand{ID: "lg", Name: "LG"}
	brandSamsung = Brand{ID: "samsung", Name: "Samsung"}
)

// catalog is the fixed set of appliances the assistant has manuals for.
var catalog = []Appliance{
	{
		ID:          "refrigerator",
		Name:        "Refrigerator",
		Icon:        "❄",
		Description: "Cooling, ice makers, water filters",
		Brands:      []Brand{brandLG, brandSamsung},
	},
	{
		ID:          "washing-machine",
		Name:        "Washing Machine",
		Icon:        "◎",
		Description: "Cycles, drainage, door seals",
		Brands:      []Brand{brandLG, brandSamsung},
	},
}

// Appliances returns a copy of the catalog.
func Appliances() []Appliance {
	out := make([]Appliance, len(catalog))
	copy(out, catalog)
	return out
}

// LookupAppliance finds an appliance by id.
func LookupAppliance(id string) (Appliance, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Appliance{}, false
}

// LookupBrand finds a brand offered for the given appliance.
func LookupBrand(applianceID, brandID string) (Brand, bool) {
	a, ok := LookupAppliance(applianceID)
	if !ok {
		return Brand{}, false
	}
	for _, b := range a.Brands {
		if b.ID == brandID {
			return b, true
		}
	}
	return Brand{}, false
}

// ApplianceName returns the display name for an appliance id, or the id with
// dashes replaced when it is not in the catalog.
func ApplianceName(id string) string {
	if a, ok := LookupAppliance(id); ok {
		return a.Name
	}
	return strings.ReplaceAll(id, "-", " ")
}

// BrandName returns the display name for a brand id. Unknown brands are
// upper-cased, which matches how the catalog writes short brand names.
func BrandName(id string) string {
	for _, b := range []Brand{brandLG, brandSamsung} {
		if b.ID == id {
			return b.Name
		}
	}
	return strings.ToUpper(id)
}

// SessionName is the backend's title for a conversation about appliance
// and brand, such as "Lg Refrigerator Support" or
// "Samsung Washing-machine Support".
func SessionName(applianceID, brandID string) string {
	return capitalize(brandID) + " " + capitalize(applianceID) + " Support"
}

// SelectionForSessionName recovers the appliance and brand ids from a
// session title. Case is ignored and dashes match spaces, so both the
// backend form and display names like "LG Washing Machine Support" match.
func SelectionForSessionName(name string) (applianceID, brandID string, ok bool) {
	want := foldTitle(name)
	if want == "" {
		return "", "", false
	}
	for _, a := range catalog {
		for _, b := range a.Brands {
			if want == foldTitle(b.ID+" "+a.ID+" support") {
				return a.ID, b.ID, true
			}
		}
	}
	return "", "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func foldTitle(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", " "))
	return strings.Join(strings.Fields(s), " ")
}
