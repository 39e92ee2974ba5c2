// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/cap-rp/oidc"
)

// Record is the authenticated state of a session: the tokens from the code
// exchange and the user's claims from the userinfo endpoint.
type Record struct {
	Tokens   *oidc.TokenBundle
	UserInfo oidc.Claims
}

// IsAuthenticated reports whether the record has a non-empty access_token.
// Claims alone never make a record authenticated.
func (r *Record) IsAuthenticated() bool {
	return r != nil && r.Tokens.HasAccessToken()
}

// storedRecord is the encoding of a Record in a Store. The token types
// redact themselves when marshaled, so their values are copied to strings.
type storedRecord struct {
	AccessToken  string                 `json:"access_token,omitempty"`
	IDToken      string                 `json:"id_token,omitempty"`
	RefreshToken string                 `json:"refresh_token,omitempty"`
	ExpiresIn    int64                  `json:"expires_in,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
	UserInfo     map[string]interface{} `json:"userinfo,omitempty"`
}

func encodeRecord(r *Record) ([]byte, error) {
	const op = "session.encodeRecord"
	if r == nil {
		return nil, fmt.Errorf("%s: record is nil: %w", op, oidc.ErrNilParameter)
	}
	var sr storedRecord
	if r.Tokens != nil {
		sr.AccessToken = string(r.Tokens.AccessToken)
		sr.IDToken = string(r.Tokens.IDToken)
		sr.RefreshToken = string(r.Tokens.RefreshToken)
		sr.ExpiresIn = r.Tokens.ExpiresIn
		sr.Extra = r.Tokens.Extra
	}
	sr.UserInfo = r.UserInfo
	b, err := json.Marshal(&sr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func decodeRecord(b []byte) (*Record, error) {
	const op = "session.decodeRecord"
	var sr storedRecord
	if err := json.Unmarshal(b, &sr); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r := &Record{
		Tokens: &oidc.TokenBundle{
			AccessToken:  oidc.AccessToken(sr.AccessToken),
			IDToken:      oidc.IDToken(sr.IDToken),
			RefreshToken: oidc.RefreshToken(sr.RefreshToken),
			ExpiresIn:    sr.ExpiresIn,
			Extra:        sr.Extra,
		},
	}
	if sr.UserInfo != nil {
		r.UserInfo = oidc.Claims(sr.UserInfo)
	}
	return r, nil
}

// Flow is a pending authentication flow: the state and nonce sent to the
// provider and where to send the user once the callback completes. There is
// at most one per session.
type Flow struct {
	State    string `json:"state"`
	Nonce    string `json:"nonce"`
	ReturnTo string `json:"return_to"`
}

func encodeFlow(f *Flow) ([]byte, error) {
	const op = "session.encodeFlow"
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func decodeFlow(b []byte) (*Flow, error) {
	const op = "session.decodeFlow"
	var f Flow
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &f, nil
}
