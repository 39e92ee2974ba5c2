// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

// Purpose selects which provider flow an authorization URL starts.
type Purpose string

const (
	PurposeLogin       Purpose = "login"
	PurposeRegister    Purpose = "register"
	PurposeEditProfile Purpose = "edit-profile"
)

// Prompt is a string value that specifies whether the provider prompts the
// end-user for reauthentication and consent.
//
// See: https://openid.net/specs/openid-connect-core-1_0.html#AuthRequest
type Prompt string

const (
	None          Prompt = "none"
	Login         Prompt = "login"
	Consent       Prompt = "consent"
	SelectAccount Prompt = "select_account"
)

// pathSuffix returns the configured path for the purpose.
func (c *Client) pathSuffix(p Purpose) (string, error) {
	switch p {
	case PurposeLogin:
		return c.config.PathSuffixes.Login, nil
	case PurposeRegister:
		return c.config.PathSuffixes.Register, nil
	case PurposeEditProfile:
		return c.config.PathSuffixes.EditProfile, nil
	default:
		return "", fmt.Errorf("unknown purpose %q: %w", p, ErrInvalidParameter)
	}
}

// AuthURL returns the URL to redirect the user-agent to in order to start
// the provider flow for the purpose. The URL is the issuer plus the purpose's
// path suffix with the client_id, redirect_uri, response_type and scope
// parameters. The state and nonce are only included when provided; AuthURL
// never generates them.
//
// Supported options:
//   - WithState
//   - WithNonce
//   - WithPrompts
//   - WithUILocales
func (c *Client) AuthURL(ctx context.Context, p Purpose, opt ...Option) (string, error) {
	const op = "Client.AuthURL"
	if c.provider == nil {
		return "", fmt.Errorf("%s: provider config is not loaded: %w", op, ErrConfiguration)
	}
	suffix, err := c.pathSuffix(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	opts := getAuthURLOpts(opt...)

	oauth2Config := oauth2.Config{
		ClientID:    c.config.ClientID,
		RedirectURL: c.config.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL: strings.TrimSuffix(c.provider.Issuer(), "/") + suffix,
		},
		// sent as configured, without splitting or reordering
		Scopes: []string{c.config.Scope},
	}

	var authCodeOpts []oauth2.AuthCodeOption
	if opts.withNonce != "" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("nonce", opts.withNonce))
	}
	if len(opts.withPrompts) > 0 {
		prompts := make([]string, 0, len(opts.withPrompts))
		for _, pr := range opts.withPrompts {
			prompts = append(prompts, string(pr))
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("prompt", strings.Join(prompts, " ")))
	}
	if len(opts.withUILocales) > 0 {
		locales := make([]string, 0, len(opts.withUILocales))
		for _, l := range opts.withUILocales {
			locales = append(locales, l.String())
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(locales, " ")))
	}
	return oauth2Config.AuthCodeURL(opts.withState, authCodeOpts...), nil
}

// LoginURL is AuthURL(ctx, PurposeLogin, opt...)
func (c *Client) LoginURL(ctx context.Context, opt ...Option) (string, error) {
	return c.AuthURL(ctx, PurposeLogin, opt...)
}

// RegisterURL is AuthURL(ctx, PurposeRegister, opt...)
func (c *Client) RegisterURL(ctx context.Context, opt ...Option) (string, error) {
	return c.AuthURL(ctx, PurposeRegister, opt...)
}

// ProfileURL is AuthURL(ctx, PurposeEditProfile, opt...)
func (c *Client) ProfileURL(ctx context.Context, opt ...Option) (string, error) {
	return c.AuthURL(ctx, PurposeEditProfile, opt...)
}

// authURLOptions is the set of available options for AuthURL
type authURLOptions struct {
	withState     string
	withNonce     string
	withPrompts   []Prompt
	withUILocales []language.Tag
}

func authURLDefaults() authURLOptions {
	return authURLOptions{}
}

func getAuthURLOpts(opt ...Option) authURLOptions {
	opts := authURLDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithState provides an optional state parameter for CSRF protection.
func WithState(state string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withState = state
		}
	}
}

// WithNonce provides an optional nonce parameter for replay protection.
func WithNonce(nonce string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withNonce = nonce
		}
	}
}

// WithPrompts provides an optional list of values for the prompt parameter.
func WithPrompts(prompts ...Prompt) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withPrompts = prompts
		}
	}
}

// WithUILocales provides an optional list of preferred languages for the
// provider's user interface, sent as the ui_locales parameter.
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withUILocales = locales
		}
	}
}
