// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is an in-memory stand-in for the appliance-support
// backend. It serves every endpoint the client calls:
//
//	POST   /auth/signup/
//	POST   /auth/login/
//	GET    /auth/verify
//	POST   /auth/refresh
//	POST   /chat/
//	GET    /chat/tips/{appliance}
//	DELETE /chat/history
//	GET    /chat-history/recent_sessions/
//	GET    /chat-history/{id}/messages/
//
// Answers come from a small keyword table instead of a retrieval pipeline.
// Nothing is persisted; restart the server to reset it.
//
// # Usage
//
//	srv := devserver.New(devserver.WithSeedUser("demo", "demo@example.com", "demo"))
//	ts := httptest.NewServer(srv.Handler())
package devserver
