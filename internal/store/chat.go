// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"time"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/tips"
)

// reduceChat applies a to the chat slice.
func reduceChat(s ChatState, a Action, now time.Time) ChatState {
	switch a := a.(type) {
	case SelectAppliance:
		s = resetSelection(s)
		s.SelectedAppliance = a.ID

	case SelectBrand:
		appliance := s.SelectedAppliance
		s = resetSelection(s)
		s.SelectedAppliance = appliance
		s.SelectedBrand = a.ID
		if appliance != "" && a.ID != "" {
			s.Tips = tips.Resolve(appliance, a.ID, nil)
		}

	case ClearSelection:
		s = resetSelection(s)

	case Back:
		switch {
		case s.SelectedBrand != "":
			return reduceChat(s, SelectAppliance{ID: s.SelectedAppliance}, now)
		case s.SelectedAppliance != "":
			s = resetSelection(s)
		}

	case AppendMessage:
		s = appendMessage(s, a.Message, now)

	case ClearMessages:
		s.Messages = nil
		s.CurrentSessionID = ""

	case ClearError:
		s.Error = ""
		if s.Status == StatusError {
			s.Status = StatusIdle
		}

	case SetFeedback:
		msgs := make([]model.Message, len(s.Messages))
		copy(msgs, s.Messages)
		for i := range msgs {
			if msgs[i].ID == a.ID {
				msgs[i].Feedback = a.Feedback
			}
		}
		s.Messages = msgs

	case sendStarted:
		if a.User != nil {
			s = appendMessage(s, *a.User, now)
		}
		s.Status = StatusSending
		s.Error = ""

	case sendSucceeded:
		s.Status = StatusIdle
		if a.Epoch == s.Epoch {
			s = appendMessage(s, a.Reply, now)
		}

	case sendFailed:
		if a.Epoch == s.Epoch {
			s.Status = StatusError
			s.Error = a.Err
		} else {
			s.Status = StatusIdle
		}

	case tipsLoaded:
		if a.Epoch == s.Epoch && s.isSelected(a.Appliance, a.Brand) {
			s.Tips = a.Tips
			s.TipsLoaded = true
			s.TipsError = ""
		}

	case tipsFailed:
		if a.Epoch == s.Epoch && s.isSelected(a.Appliance, a.Brand) {
			s.TipsError = a.Err
		}

	case historyRequested:
		s.HistoryStatus = LoadLoading
		s.HistoryError = ""

	case historyLoaded:
		s.History = a.Sessions
		s.HistoryStatus = LoadLoaded

	case historyFailed:
		s.HistoryStatus = LoadFailed
		s.HistoryError = a.Err

	case sessionLoaded:
		s.Messages = nil
		for _, m := range a.Messages {
			s = appendMessage(s, m, now)
		}
		s.CurrentSessionID = a.ID
		s.Error = ""
		if s.Status == StatusError {
			s.Status = StatusIdle
		}

	case historyCleared:
		s.History = nil
		s.Messages = nil
		s.CurrentSessionID = ""
		s.HistoryStatus = LoadLoaded

	case Logout, ForcedLogout:
		s = resetSelection(s)
		s.History = nil
		s.HistoryStatus = LoadIdle
		s.HistoryError = ""
	}
	return s
}

// resetSelection clears everything tied to the current selection and
// advances the epoch. A pending send keeps the sending status until its
// result arrives.
func resetSelection(s ChatState) ChatState {
	s.SelectedAppliance = ""
	s.SelectedBrand = ""
	s.Messages = nil
	s.Tips = nil
	s.TipsLoaded = false
	s.TipsError = ""
	s.CurrentSessionID = ""
	s.Error = ""
	if s.Status == StatusError {
		s.Status = StatusIdle
	}
	s.Epoch++
	return s
}

// appendMessage copies the list so earlier snapshots are never mutated.
func appendMessage(s ChatState, m model.Message, now time.Time) ChatState {
	s.NextID++
	m.ID = s.NextID
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	msgs := make([]model.Message, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	s.Messages = append(msgs, m)
	return s
}
