// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"github.com/hashicorp/cap-rp/oidc"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultAuthKey is the store key of a session's Record.
	DefaultAuthKey = "next_identity_auth"

	// DefaultReturnToKey is the store key of a session's pending Flow.
	DefaultReturnToKey = "return_to"

	// DefaultReturnTo is where users are sent after a callback without a
	// pending return to target.
	DefaultReturnTo = "/"
)

// guardOptions is the set of available options for NewGuard
type guardOptions struct {
	withLogger          hclog.Logger
	withAuthKey         string
	withReturnToKey     string
	withDefaultReturnTo string
	withStateCheck      bool
	withIDTokenCheck    bool
}

// guardDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func guardDefaults() guardOptions {
	return guardOptions{
		withLogger:          hclog.NewNullLogger(),
		withAuthKey:         DefaultAuthKey,
		withReturnToKey:     DefaultReturnToKey,
		withDefaultReturnTo: DefaultReturnTo,
		withStateCheck:      true,
	}
}

// getGuardOpts gets the guard defaults and applies the opt overrides passed
// in.
func getGuardOpts(opt ...oidc.Option) guardOptions {
	opts := guardDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the guard.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithAuthKey provides an optional store key for the session's Record.
func WithAuthKey(k string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok {
			o.withAuthKey = k
		}
	}
}

// WithReturnToKey provides an optional store key for the session's pending
// Flow.
func WithReturnToKey(k string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok {
			o.withReturnToKey = k
		}
	}
}

// WithDefaultReturnTo provides an optional target for callbacks which have no
// pending return to target.
func WithDefaultReturnTo(u string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok {
			o.withDefaultReturnTo = u
		}
	}
}

// WithStateCheck enables or disables verifying the callback's state against
// the pending Flow. It's enabled by default and should only be disabled for
// providers which don't return the state.
func WithStateCheck(enabled bool) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok {
			o.withStateCheck = enabled
		}
	}
}

// WithIDTokenValidation makes CompleteCallback validate the id_token, with the
// pending Flow's nonce, before the session is authenticated. A token response
// without an id_token then fails the login.
func WithIDTokenValidation() oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*guardOptions); ok {
			o.withIDTokenCheck = true
		}
	}
}
