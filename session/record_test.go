// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"testing"

	"github.com/hashicorp/cap-rp/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_encodeRecord(t *testing.T) {
	t.Parallel()
	t.Run("tokens-are-stored-unredacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := &Record{
			Tokens: &oidc.TokenBundle{
				AccessToken:  "at",
				IDToken:      "a.b.c",
				RefreshToken: "rt",
				ExpiresIn:    60,
				Extra:        map[string]interface{}{"token_type": "Bearer"},
			},
			UserInfo: oidc.Claims{"sub": "u1"},
		}
		b, err := encodeRecord(want)
		require.NoError(err)
		assert.NotContains(string(b), oidc.RedactedAccessToken)

		got, err := decodeRecord(b)
		require.NoError(err)
		assert.Equal(want, got)
		assert.True(got.IsAuthenticated())
	})
	t.Run("nil", func(t *testing.T) {
		assert := assert.New(t)
		_, err := encodeRecord(nil)
		assert.Truef(errors.Is(err, oidc.ErrNilParameter), "wanted \"%s\" but got \"%s\"", oidc.ErrNilParameter, err)
	})
	t.Run("unreadable", func(t *testing.T) {
		_, err := decodeRecord([]byte("[]"))
		assert.Error(t, err)
	})
}

func TestRecord_IsAuthenticated(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		r    *Record
		want bool
	}{
		{name: "nil"},
		{name: "no-tokens", r: &Record{UserInfo: oidc.Claims{"sub": "u1"}}},
		{name: "empty-access-token", r: &Record{Tokens: &oidc.TokenBundle{IDToken: "a.b.c"}, UserInfo: oidc.Claims{"sub": "u1"}}},
		{name: "access-token", r: &Record{Tokens: &oidc.TokenBundle{AccessToken: "at"}}, want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.r.IsAuthenticated())
		})
	}
}

func Test_decodeFlow(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	want := &Flow{State: "st", Nonce: "nc", ReturnTo: "/x"}
	b, err := encodeFlow(want)
	require.NoError(err)
	got, err := decodeFlow(b)
	require.NoError(err)
	assert.Equal(want, got)

	_, err = decodeFlow([]byte("nope"))
	assert.Error(err)
}
