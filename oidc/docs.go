// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
oidc is a package for writing OIDC relying parties which use the
authorization code flow against a single provider.

# Primary types provided by the package

* ClientConfig: provides the relying party's configuration (for example:
client id/secret, redirect URL, scope, discovery URL and the provider's login,
register and profile path suffixes). It can be composed with NewClientConfig or
loaded from YAML with LoadClientConfig.

* ProviderConfig: the provider metadata loaded from its discovery document by
Discover. It never changes once loaded.

* Client: provides integration with the provider. The client provides
capabilities like: generating login, register and profile URLs, exchanging
codes for tokens, making user info requests, validating id_tokens and
generating logout URLs.

* TokenBundle: the tokens returned by a code exchange. AccessToken, IDToken and
RefreshToken redact themselves when printed or marshaled to JSON.

* Transport: the http requests made to the provider. HTTPTransport is the
default and can be given a CA for the provider.

* Alg: represents asymmetric signing algorithms

# The session package

The session package provides a Guard which tracks a user's authentication
state in a caller provided session store, along with net/http handlers for the
login, callback and logout legs of the flow.

# Testing

StartTestProvider starts a local provider which supports discovery, the
authorize endpoints, token, userinfo, JWKS and end session.
*/
package oidc
