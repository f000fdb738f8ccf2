// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the appliance-support backend.
//
// Every request carries the bearer token currently held in durable storage,
// a JSON content type and an X-Request-ID. A 401 from any call removes the
// stored tokens and fires the handler registered with OnUnauthorized once
// for that response; the error is still returned to the caller.
//
// Non-2xx responses become *APIError values. The status is mapped onto a
// sentinel so callers can branch with errors.Is:
//
//	reply, err := client.SendMessage(ctx, "ice maker leaking", "refrigerator", "lg")
//	if errors.Is(err, api.ErrUnauthorized) {
//		// already logged out
//	}
//
// No request is retried.
package api
