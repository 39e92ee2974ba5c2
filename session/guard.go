// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"

	"github.com/hashicorp/cap-rp/oidc"
	"github.com/hashicorp/go-hclog"
)

// Authenticator is the provider client a Guard drives. *oidc.Client
// implements it.
type Authenticator interface {
	AuthURL(ctx context.Context, p oidc.Purpose, opt ...oidc.Option) (string, error)
	ExchangeCode(ctx context.Context, authorizationCode string) (*oidc.TokenBundle, error)
	UserInfo(ctx context.Context, accessToken oidc.AccessToken) (oidc.Claims, error)
	ValidateIDToken(ctx context.Context, idToken oidc.IDToken, nonce string) (oidc.Claims, error)
	LogoutURL(ctx context.Context, opt ...oidc.Option) (string, error)
}

// ensure that oidc.Client implements the Authenticator interface
var _ Authenticator = (*oidc.Client)(nil)

// Decision is the result of RequireAuth. Exactly one of Allow or RedirectURL
// is set.
type Decision struct {
	// Allow is true when the session is authenticated.
	Allow bool

	// RedirectURL is the provider login URL to send an anonymous user to.
	RedirectURL string
}

// Guard is the authentication state machine over a session Store. It holds
// no per-session state itself, so one Guard serves every session and is safe
// for concurrent use.
type Guard struct {
	auth            Authenticator
	logger          hclog.Logger
	authKey         string
	returnToKey     string
	defaultReturnTo string
	stateCheck      bool
	idTokenCheck    bool
}

// NewGuard creates a Guard for the Authenticator.
//
// Supported options:
//   - WithLogger
//   - WithAuthKey
//   - WithReturnToKey
//   - WithDefaultReturnTo
//   - WithStateCheck
//   - WithIDTokenValidation
func NewGuard(a Authenticator, opt ...oidc.Option) (*Guard, error) {
	const op = "session.NewGuard"
	if a == nil {
		return nil, fmt.Errorf("%s: authenticator is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getGuardOpts(opt...)
	switch {
	case opts.withAuthKey == "":
		return nil, fmt.Errorf("%s: auth key is empty: %w", op, oidc.ErrInvalidParameter)
	case opts.withReturnToKey == "":
		return nil, fmt.Errorf("%s: return to key is empty: %w", op, oidc.ErrInvalidParameter)
	case opts.withAuthKey == opts.withReturnToKey:
		return nil, fmt.Errorf("%s: auth key and return to key are both %q: %w", op, opts.withAuthKey, oidc.ErrInvalidParameter)
	case opts.withDefaultReturnTo == "":
		return nil, fmt.Errorf("%s: default return to is empty: %w", op, oidc.ErrInvalidParameter)
	}
	return &Guard{
		auth:            a,
		logger:          opts.withLogger,
		authKey:         opts.withAuthKey,
		returnToKey:     opts.withReturnToKey,
		defaultReturnTo: opts.withDefaultReturnTo,
		stateCheck:      opts.withStateCheck,
		idTokenCheck:    opts.withIDTokenCheck,
	}, nil
}

// BeginFlow starts a provider flow for the purpose. A new state and nonce are
// generated and saved, with returnTo, as the session's pending Flow
// (replacing any prior one), and the provider URL to redirect the user-agent
// to is returned. The session's authentication state doesn't change.
func (g *Guard) BeginFlow(ctx context.Context, s Store, p oidc.Purpose, returnTo string) (string, error) {
	const op = "Guard.BeginFlow"
	if s == nil {
		return "", fmt.Errorf("%s: store is nil: %w", op, oidc.ErrNilParameter)
	}
	state, err := oidc.NewID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	nonce, err := oidc.NewID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate nonce: %w", op, err)
	}
	u, err := g.auth.AuthURL(ctx, p, oidc.WithState(state), oidc.WithNonce(nonce))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	b, err := encodeFlow(&Flow{State: state, Nonce: nonce, ReturnTo: returnTo})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Set(ctx, g.returnToKey, b); err != nil {
		return "", fmt.Errorf("%s: unable to save flow: %w", op, err)
	}
	g.logger.Debug("flow started", "purpose", p)
	return u, nil
}

// CompleteCallback finishes the flow with the authorization code and state
// from the provider's callback. The pending Flow is always consumed and its
// return to target (or the default) is returned on success.
//
// The state must match the pending Flow's unless state checking is disabled.
// The code is exchanged and the session is only authenticated when the
// response has an access_token and the userinfo request succeeds. Every
// failure wraps oidc.ErrLoginFailed and leaves the session's Record as it
// was.
func (g *Guard) CompleteCallback(ctx context.Context, s Store, code, state string) (string, error) {
	const op = "Guard.CompleteCallback"
	if s == nil {
		return "", fmt.Errorf("%s: store is nil: %w", op, oidc.ErrNilParameter)
	}
	flow, err := g.popFlow(ctx, s)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	returnTo := g.defaultReturnTo
	nonce := ""
	if flow != nil {
		nonce = flow.Nonce
		if flow.ReturnTo != "" {
			returnTo = flow.ReturnTo
		}
	}
	if g.stateCheck {
		switch {
		case flow == nil:
			return "", fmt.Errorf("%s: no pending flow for state: %w: %w", op, oidc.ErrLoginFailed, oidc.ErrInvalidState)
		case state == "" || state != flow.State:
			return "", fmt.Errorf("%s: state doesn't match the pending flow: %w: %w", op, oidc.ErrLoginFailed, oidc.ErrInvalidState)
		}
	}

	tk, err := g.auth.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	if !tk.HasAccessToken() {
		return "", fmt.Errorf("%s: token response has no access_token: %w", op, oidc.ErrLoginFailed)
	}
	info, err := g.auth.UserInfo(ctx, tk.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	if g.idTokenCheck {
		if tk.IDToken == "" {
			return "", fmt.Errorf("%s: token response has no id_token: %w: %w", op, oidc.ErrLoginFailed, oidc.ErrIDTokenVerificationFailed)
		}
		if _, err := g.auth.ValidateIDToken(ctx, tk.IDToken, nonce); err != nil {
			return "", fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
		}
	}

	b, err := encodeRecord(&Record{Tokens: tk, UserInfo: info})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	if err := s.Set(ctx, g.authKey, b); err != nil {
		return "", fmt.Errorf("%s: unable to save record: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	g.logger.Debug("session authenticated", "subject", info.Subject())
	return returnTo, nil
}

// Logout removes the session's Record and returns the provider's end session
// URL, with the Record's id_token as a hint and returnTo as the post logout
// redirect when they're available. The Record is removed even when the URL
// can't be built, e.g. the provider has no end_session_endpoint
// (oidc.ErrConfiguration).
func (g *Guard) Logout(ctx context.Context, s Store, returnTo string) (string, error) {
	const op = "Guard.Logout"
	if s == nil {
		return "", fmt.Errorf("%s: store is nil: %w", op, oidc.ErrNilParameter)
	}
	b, ok, err := s.Pop(ctx, g.authKey)
	if err != nil {
		return "", fmt.Errorf("%s: unable to remove record: %w", op, err)
	}
	var opts []oidc.Option
	if ok {
		r, err := decodeRecord(b)
		switch {
		case err != nil:
			g.logger.Warn("discarding unreadable session record", "error", err)
		case r.Tokens.IDToken != "":
			opts = append(opts, oidc.WithIDTokenHint(r.Tokens.IDToken))
		}
	}
	if returnTo != "" {
		opts = append(opts, oidc.WithPostLogoutRedirect(returnTo))
	}
	u, err := g.auth.LogoutURL(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	g.logger.Debug("session logged out", "had_record", ok)
	return u, nil
}

// RequireAuth is the check for protected routes. An authenticated session is
// allowed. An anonymous session gets the login URL to redirect to, with
// currentURL saved as the pending Flow's return to target.
func (g *Guard) RequireAuth(ctx context.Context, s Store, currentURL string) (Decision, error) {
	const op = "Guard.RequireAuth"
	ok, err := g.IsAuthenticated(ctx, s)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		return Decision{Allow: true}, nil
	}
	u, err := g.BeginFlow(ctx, s, oidc.PurposeLogin, currentURL)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	return Decision{RedirectURL: u}, nil
}

// IsAuthenticated reports whether the session has a Record with a non-empty
// access_token. An unreadable Record is anonymous.
func (g *Guard) IsAuthenticated(ctx context.Context, s Store) (bool, error) {
	const op = "Guard.IsAuthenticated"
	r, _, err := g.Record(ctx, s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return r.IsAuthenticated(), nil
}

// UserInfo returns the claims stored in the session's Record and whether
// there is a Record.
func (g *Guard) UserInfo(ctx context.Context, s Store) (oidc.Claims, bool, error) {
	const op = "Guard.UserInfo"
	r, ok, err := g.Record(ctx, s)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, false, nil
	}
	return r.UserInfo, true, nil
}

// Record returns the session's Record and whether there is one. An unreadable
// Record is logged and reported as missing.
func (g *Guard) Record(ctx context.Context, s Store) (*Record, bool, error) {
	const op = "Guard.Record"
	if s == nil {
		return nil, false, fmt.Errorf("%s: store is nil: %w", op, oidc.ErrNilParameter)
	}
	b, ok, err := s.Get(ctx, g.authKey)
	if err != nil {
		return nil, false, fmt.Errorf("%s: unable to read record: %w", op, err)
	}
	if !ok {
		return nil, false, nil
	}
	r, err := decodeRecord(b)
	if err != nil {
		g.logger.Warn("ignoring unreadable session record", "error", err)
		return nil, false, nil
	}
	return r, true, nil
}

// discardFlow removes the session's pending Flow, if any.
func (g *Guard) discardFlow(ctx context.Context, s Store) error {
	if _, _, err := s.Pop(ctx, g.returnToKey); err != nil {
		return fmt.Errorf("unable to remove flow: %w", err)
	}
	return nil
}

// popFlow consumes the pending flow. An unreadable flow is treated as
// missing.
func (g *Guard) popFlow(ctx context.Context, s Store) (*Flow, error) {
	b, ok, err := s.Pop(ctx, g.returnToKey)
	if err != nil {
		return nil, fmt.Errorf("unable to read flow: %w", err)
	}
	if !ok {
		return nil, nil
	}
	f, err := decodeFlow(b)
	if err != nil {
		g.logger.Warn("ignoring unreadable pending flow", "error", err)
		return nil, nil
	}
	return f, nil
}
