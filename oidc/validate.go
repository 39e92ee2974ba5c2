// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/cap-rp/oidc/internal/strutils"
)

// verifierConfig returns the go-oidc config for the client's id_token
// verifier. When additional audiences are configured the client id check is
// done by ValidateIDToken instead of go-oidc.
func (c *Client) verifierConfig() *oidc.Config {
	algs := make([]string, 0, len(c.config.SupportedSigningAlgs))
	for _, a := range c.config.SupportedSigningAlgs {
		algs = append(algs, string(a))
	}
	return &oidc.Config{
		ClientID:             c.config.ClientID,
		SupportedSigningAlgs: algs,
		SkipClientIDCheck:    len(c.config.Audiences) > 0,
	}
}

// ValidateIDToken verifies the id_token's signature against the provider's
// JWKS along with its issuer, audience and expiry. When nonce is not empty
// the token's nonce claim must match it. The token's claims are returned
// only if every check passes.
//
// Providers that don't publish a jwks_uri can't be validated against and
// ErrConfiguration is returned.
func (c *Client) ValidateIDToken(ctx context.Context, idToken IDToken, nonce string) (Claims, error) {
	const op = "Client.ValidateIDToken"
	if idToken == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	if c.verifier == nil {
		return nil, fmt.Errorf("%s: provider has no jwks_uri: %w", op, ErrConfiguration)
	}
	// the key set is fetched with the client's transport, not the caller's
	ctx = oidc.ClientContext(ctx, keySetHTTPClient(c.transport))
	tk, err := c.verifier.Verify(ctx, string(idToken))
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, fmt.Errorf("%s: id_token expired at %s: %w: %w", op, expired.Expiry, ErrIDTokenVerificationFailed, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrIDTokenVerificationFailed, err)
	}
	if len(c.config.Audiences) > 0 {
		if !validAudience(tk.Audience, c.config.ClientID, c.config.Audiences) {
			return nil, fmt.Errorf("%s: aud %v doesn't contain the client id or a configured audience: %w", op, tk.Audience, ErrInvalidAudience)
		}
	}
	if nonce != "" && tk.Nonce != nonce {
		return nil, fmt.Errorf("%s: id_token nonce doesn't match: %w", op, ErrInvalidNonce)
	}
	var claims Claims
	if err := tk.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w: %w", op, ErrIDTokenVerificationFailed, err)
	}
	return claims, nil
}

func validAudience(aud []string, clientID string, allowed []string) bool {
	return strutils.ContainsAny(aud, append([]string{clientID}, allowed...)...)
}
