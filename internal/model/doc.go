// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the domain types shared by the client packages.
//
// # Key Types
//
//   - Message: one transcript entry, typed user or ai
//   - Tip: a maintenance suggestion with an urgency used for ordering
//   - SessionSummary: a read-only chat history entry from the backend
//   - User: the minimal identity recorded after login
//   - Appliance, Brand: the selection catalog
//
// # Usage
//
//	msg := model.Message{Type: model.MessageUser, Content: "ice maker leaking"}
//	if a, ok := model.LookupAppliance("refrigerator"); ok {
//	    fmt.Println(a.Name, len(a.Brands))
//	}
package model
