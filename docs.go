// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// caprp provides the packages a web application needs to sign users in with
// an OIDC provider using the authorization code flow.
//
//   - oidc: provider discovery, authorization, logout and token exchange
//     URLs, the userinfo request and id_token decoding and validation.
//   - session: a Guard that keeps a browser session's authentication state in
//     a session Store, plus net/http handlers and middleware built on it.
//
// See examples/webapp for a complete application.
package caprp
