// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LogoutURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := testStubClient(t)

	tests := []struct {
		name string
		opt  []Option
		want string
	}{
		{
			name: "bare",
			want: "https://idp.example/logout",
		},
		{
			name: "hint",
			opt:  []Option{WithIDTokenHint("a.b.c")},
			want: "https://idp.example/logout?id_token_hint=a.b.c",
		},
		{
			name: "redirect",
			opt:  []Option{WithPostLogoutRedirect("https://app/")},
			want: "https://idp.example/logout?post_logout_redirect_uri=https%3A%2F%2Fapp%2F",
		},
		{
			name: "both",
			opt:  []Option{WithIDTokenHint("a.b.c"), WithPostLogoutRedirect("https://app/")},
			want: "https://idp.example/logout?id_token_hint=a.b.c&post_logout_redirect_uri=https%3A%2F%2Fapp%2F",
		},
		{
			name: "empty-values-are-omitted",
			opt:  []Option{WithIDTokenHint(""), WithPostLogoutRedirect("")},
			want: "https://idp.example/logout",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := c.LogoutURL(ctx, tt.opt...)
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}

	t.Run("no-end-session-endpoint", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		noLogout := &Client{provider: &ProviderConfig{issuer: "https://idp.example"}}
		_, err := noLogout.LogoutURL(ctx, WithIDTokenHint("a.b.c"))
		require.Error(err)
		assert.Truef(errors.Is(err, ErrConfiguration), "wanted \"%s\" but got \"%s\"", ErrConfiguration, err)
	})
	t.Run("endpoint-query-is-kept", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		withQuery := &Client{provider: &ProviderConfig{endSessionEndpoint: "https://idp.example/logout?tenant=t1"}}
		got, err := withQuery.LogoutURL(ctx, WithPostLogoutRedirect("https://app/"))
		require.NoError(err)
		assert.Equal("https://idp.example/logout?post_logout_redirect_uri=https%3A%2F%2Fapp%2F&tenant=t1", got)
	})
}
