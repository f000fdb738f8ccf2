// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the applianceai command tree.
//
// Running applianceai without a subcommand starts the full-screen UI. The
// subcommands give non-interactive access to the same backend:
//
//	applianceai login                 Sign in (password is read without echo)
//	applianceai signup                Create an account
//	applianceai logout                Forget the stored tokens
//	applianceai ask -a refrigerator -b lg "Ice maker is not working"
//	applianceai chat -a washing-machine -b samsung
//	applianceai tips -a refrigerator -b lg
//	applianceai history [session-id]
//	applianceai export [session-id] --format md|json|yaml
//	applianceai config show|path|init
//	applianceai version
//
// Every command shares the persistent flags --api-base, --config,
// --ephemeral and --debug. Tokens written by login are read back by the
// other commands from the durable store under the config directory.
package cli
