// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/url"
)

// LogoutURL returns the provider's RP-initiated logout URL. The id_token_hint
// and post_logout_redirect_uri parameters are only added when provided, and
// the bare end_session_endpoint is returned when neither is.
//
// Supported options:
//   - WithIDTokenHint
//   - WithPostLogoutRedirect
//
// See: https://openid.net/specs/openid-connect-rpinitiated-1_0.html
func (c *Client) LogoutURL(ctx context.Context, opt ...Option) (string, error) {
	const op = "Client.LogoutURL"
	if c.provider == nil || c.provider.EndSessionEndpoint() == "" {
		return "", fmt.Errorf("%s: provider has no end_session_endpoint: %w", op, ErrConfiguration)
	}
	opts := getLogoutOpts(opt...)
	endpoint := c.provider.EndSessionEndpoint()

	v := url.Values{}
	if opts.withIDTokenHint != "" {
		v.Set("id_token_hint", string(opts.withIDTokenHint))
	}
	if opts.withPostLogoutRedirect != "" {
		v.Set("post_logout_redirect_uri", opts.withPostLogoutRedirect)
	}
	if len(v) == 0 {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: end_session_endpoint is invalid: %w: %w", op, ErrConfiguration, err)
	}
	// keep any query the provider put on its endpoint
	q := u.Query()
	for k, vs := range v {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// logoutOptions is the set of available options for LogoutURL
type logoutOptions struct {
	withIDTokenHint        IDToken
	withPostLogoutRedirect string
}

func logoutDefaults() logoutOptions {
	return logoutOptions{}
}

func getLogoutOpts(opt ...Option) logoutOptions {
	opts := logoutDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithIDTokenHint provides an optional id_token_hint for LogoutURL.
func WithIDTokenHint(t IDToken) Option {
	return func(o interface{}) {
		if o, ok := o.(*logoutOptions); ok {
			o.withIDTokenHint = t
		}
	}
}

// WithPostLogoutRedirect provides an optional post_logout_redirect_uri for
// LogoutURL.
func WithPostLogoutRedirect(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*logoutOptions); ok {
			o.withPostLogoutRedirect = u
		}
	}
}
