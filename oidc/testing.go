// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// TestGenerateKeys will generate a test ECDSA P-256 pub/priv key pair for
// signing id_tokens with ES256.
func TestGenerateKeys(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	require := require.New(t)
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	return k.Public(), k
}

// TestSignJWT will bundle the provided claims into a test signed JWT using
// the alg and key (with an optional key id).
func TestSignJWT(t *testing.T, key crypto.PrivateKey, alg Alg, keyID string, claims jwt.Claims, privateClaims map[string]interface{}) string {
	t.Helper()
	raw, err := signJWT(key, alg, keyID, claims, privateClaims)
	require.NoError(t, err)
	return raw
}

// signJWT is TestSignJWT for callers which can't fail the test themselves,
// like the test provider's handlers.
func signJWT(key crypto.PrivateKey, alg Alg, keyID string, claims jwt.Claims, privateClaims map[string]interface{}) (string, error) {
	const op = "signJWT"
	opts := (&jose.SignerOptions{}).WithType("JWT")
	if keyID != "" {
		opts = opts.WithHeader("kid", keyID)
	}
	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.SignatureAlgorithm(alg), Key: key},
		opts,
	)
	if err != nil {
		return "", fmt.Errorf("%s: unable to create signer: %w", op, err)
	}
	b := jwt.Signed(sig).Claims(claims)
	if len(privateClaims) > 0 {
		b = b.Claims(privateClaims)
	}
	raw, err := b.Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: unable to serialize: %w", op, err)
	}
	return raw, nil
}

// TestUnsignedJWT returns a compact JWT with the claims as its payload and an
// empty signature segment. The payload segment is base64url without padding.
func TestUnsignedJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	require := require.New(t)
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(err)
	payload, err := json.Marshal(claims)
	require.NoError(err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "."
}

// TestJWKS returns a key set with the public key, suitable for a jwks_uri
// response.
func TestJWKS(t *testing.T, pub crypto.PublicKey, alg Alg, keyID string) *jose.JSONWebKeySet {
	t.Helper()
	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				KeyID:     keyID,
				Algorithm: string(alg),
				Use:       "sig",
			},
		},
	}
}

// TestIDTokenClaims returns registered claims for an id_token issued by
// issuer to clientID which expires after ttl. A negative ttl returns an
// expired token's claims.
func TestIDTokenClaims(issuer, clientID, subject string, ttl time.Duration) jwt.Claims {
	now := time.Now()
	return jwt.Claims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.Audience{clientID},
		IssuedAt:  jwt.NewNumericDate(now.Add(-10 * time.Second)),
		NotBefore: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(ttl)),
	}
}
