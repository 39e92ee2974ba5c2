// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IDToken is an oidc id_token
type IDToken string

// RedactedIDToken is the redacted string or json for an oidc id_token
const RedactedIDToken = "[REDACTED: id_token]"

// String will redact the token
func (t IDToken) String() string {
	return RedactedIDToken
}

// MarshalJSON will redact the token
func (t IDToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIDToken)
}

// UnverifiedClaims returns the token's payload claims without verifying it.
// See UnverifiedClaims(...)
func (t IDToken) UnverifiedClaims() (Claims, error) {
	return UnverifiedClaims(string(t))
}

// segmentDecoder restores missing base64url padding before decoding.
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// UnverifiedClaims decodes the payload segment of a compact serialized JWT.
//
// WARNING: the signature, issuer, audience, expiry and nonce are NOT checked.
// The claims returned can't be trusted for authentication; use
// Client.ValidateIDToken(...) for that.
func UnverifiedClaims(idToken string) (Claims, error) {
	const op = "UnverifiedClaims"
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%s: id_token has %d segments, expected 3: %w", op, len(parts), ErrTokenFormat)
	}
	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: unable to decode id_token payload: %w: %w", op, ErrTokenFormat, err)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%s: id_token payload is not a json object: %w: %w", op, ErrTokenFormat, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%s: id_token payload is not a json object: %w", op, ErrTokenFormat)
	}
	return claims, nil
}
