// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package session tracks a user's OIDC authentication state in a caller
// provided Store, one browser session at a time.
//
// A session is either anonymous (no Record) or authenticated (a Record with a
// non-empty access_token). The Guard moves a session between the two:
// BeginFlow and RequireAuth send the user to the provider, CompleteCallback
// stores the Record and Logout removes it. The net/http handlers in this
// package wire those operations to routes.
package session
