// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "time"

// reduceAuth applies a to the auth slice.
func reduceAuth(s AuthState, a Action, _ time.Time) AuthState {
	switch a := a.(type) {
	case hydrated:
		s.Token = a.Token
		s.RefreshToken = a.RefreshToken
		s.IsAuthenticated = a.Token != ""

	case authStarted:
		s.Loading = true
		s.Error = ""

	case loginSucceeded:
		user := a.User
		s.User = &user
		s.Token = a.Token
		s.RefreshToken = a.RefreshToken
		s.IsAuthenticated = true
		s.Loading = false
		s.Error = ""

	case signupSucceeded:
		s.Loading = false
		s.Error = ""

	case authFailed:
		s.Loading = false
		s.Error = a.Err

	case tokenRefreshed:
		s.Token = a.Token
		if a.RefreshToken != "" {
			s.RefreshToken = a.RefreshToken
		}

	case verified:
		user := a.User
		s.User = &user

	case ClearAuthError:
		s.Error = ""

	case Logout, ForcedLogout:
		s = AuthState{}
	}
	return s
}
