// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// RefreshToken is an oauth refresh_token. It's kept in the TokenBundle and
// session records, but no refresh flow uses it.
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token
const RedactedRefreshToken = "[REDACTED: refresh_token]"

func (t RefreshToken) String() string { return RedactedRefreshToken }

func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}

// TokenBundle is the normalized token endpoint response. Fields other than
// access_token, id_token, refresh_token and expires_in are kept in Extra.
// AccessToken is empty when the provider didn't return one; it's up to the
// caller to decide what that means.
type TokenBundle struct {
	AccessToken  AccessToken
	IDToken      IDToken
	RefreshToken RefreshToken

	// ExpiresIn is the access_token lifetime in seconds, 0 when not provided.
	ExpiresIn int64

	Extra map[string]interface{}
}

// HasAccessToken reports whether the bundle carries a non-empty access_token.
func (b *TokenBundle) HasAccessToken() bool {
	return b != nil && b.AccessToken != ""
}

// OAuth2 converts the bundle into an *oauth2.Token. Extra fields and the
// id_token are available via the returned token's Extra(...).
func (b *TokenBundle) OAuth2() *oauth2.Token {
	if b == nil {
		return nil
	}
	tk := &oauth2.Token{
		AccessToken:  string(b.AccessToken),
		RefreshToken: string(b.RefreshToken),
	}
	if tt, ok := b.Extra["token_type"].(string); ok {
		tk.TokenType = tt
	}
	if b.ExpiresIn > 0 {
		tk.Expiry = time.Now().Add(time.Duration(b.ExpiresIn) * time.Second)
	}
	raw := make(map[string]interface{}, len(b.Extra)+1)
	for k, v := range b.Extra {
		raw[k] = v
	}
	if b.IDToken != "" {
		raw["id_token"] = string(b.IDToken)
	}
	return tk.WithExtra(raw)
}

// parseTokenBundle decodes a token endpoint response body. Only a body that
// isn't a JSON object is an error.
func parseTokenBundle(body []byte) (*TokenBundle, error) {
	const op = "parseTokenBundle"
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%s: unable to decode token response: %w", op, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: token response is not a json object: %w", op, ErrInvalidParameter)
	}
	b := &TokenBundle{
		Extra: map[string]interface{}{},
	}
	for k, v := range raw {
		switch k {
		case "access_token":
			s, _ := v.(string)
			b.AccessToken = AccessToken(s)
		case "id_token":
			s, _ := v.(string)
			b.IDToken = IDToken(s)
		case "refresh_token":
			s, _ := v.(string)
			b.RefreshToken = RefreshToken(s)
		case "expires_in":
			b.ExpiresIn = expiresIn(v)
		default:
			b.Extra[k] = v
		}
	}
	return b, nil
}

// expiresIn accepts both numbers and numeric strings, some providers send the
// latter.
func expiresIn(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
