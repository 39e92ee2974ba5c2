// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedClientSecret
		secret := ClientSecret("bob's phone number")
		assert.Equalf(want, secret.String(), "ClientSecret.String() = %v, want %v", secret.String(), want)
		assert.Equal(want, fmt.Sprintf("%s", secret))
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedClientSecret)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "ClientSecret.MarshalJSON() = %s, want %s", got, want)
	})
}

func TestNewClientConfig(t *testing.T) {
	t.Parallel()
	const (
		discovery = "https://idp.example/.well-known/openid-configuration"
		redirect  = "https://app/callback"
	)
	type args struct {
		discoveryURL string
		clientID     string
		clientSecret ClientSecret
		redirectURL  string
		opt          []Option
	}
	tests := []struct {
		name      string
		args      args
		want      *ClientConfig
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid-defaults",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
			},
			want: &ClientConfig{
				DiscoveryURL:         discovery,
				ClientID:             "abc",
				ClientSecret:         "shh",
				RedirectURL:          redirect,
				Scope:                DefaultScope,
				PathSuffixes:         DefaultPathSuffixes(),
				SupportedSigningAlgs: []Alg{RS256},
			},
		},
		{
			name: "valid-with-all-opts",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
				opt: []Option{
					WithScope("openid email"),
					WithPathSuffixes(PathSuffixes{Login: "/login", Register: "/signup", EditProfile: "/me"}),
					WithSupportedSigningAlgs(ES256, RS512),
					WithAudiences("aud1", "aud2", "aud1"),
					WithProviderCA("ca-pem"),
				},
			},
			want: &ClientConfig{
				DiscoveryURL:         discovery,
				ClientID:             "abc",
				ClientSecret:         "shh",
				RedirectURL:          redirect,
				Scope:                "openid email",
				PathSuffixes:         PathSuffixes{Login: "/login", Register: "/signup", EditProfile: "/me"},
				SupportedSigningAlgs: []Alg{ES256, RS512},
				Audiences:            []string{"aud1", "aud2"},
				ProviderCA:           "ca-pem",
			},
		},
		{
			name: "partial-path-suffixes-keep-defaults",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
				opt:          []Option{WithPathSuffixes(PathSuffixes{Register: "/signup"})},
			},
			want: &ClientConfig{
				DiscoveryURL:         discovery,
				ClientID:             "abc",
				ClientSecret:         "shh",
				RedirectURL:          redirect,
				Scope:                DefaultScope,
				PathSuffixes:         PathSuffixes{Login: DefaultLoginPath, Register: "/signup", EditProfile: DefaultEditProfilePath},
				SupportedSigningAlgs: []Alg{RS256},
			},
		},
		{
			name: "empty-client-id",
			args: args{
				discoveryURL: discovery,
				clientSecret: "shh",
				redirectURL:  redirect,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-client-secret",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				redirectURL:  redirect,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "blank-scope",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
				opt:          []Option{WithScope("   ")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "bad-discovery-scheme",
			args: args{
				discoveryURL: "ftp://idp.example/",
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "redirect-without-host",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  "https:///callback",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "path-suffix-without-slash",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
				opt:          []Option{WithPathSuffixes(PathSuffixes{Login: "authorize"})},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "unsupported-alg",
			args: args{
				discoveryURL: discovery,
				clientID:     "abc",
				clientSecret: "shh",
				redirectURL:  redirect,
				opt:          []Option{WithSupportedSigningAlgs("HS256")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewClientConfig(tt.args.discoveryURL, tt.args.clientID, tt.args.clientSecret, tt.args.redirectURL, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(got)
				if tt.wantIsErr != nil {
					assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestClientConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		assert := assert.New(t)
		var c *ClientConfig
		err := c.Validate()
		assert.Truef(errors.Is(err, ErrNilParameter), "wanted \"%s\" but got \"%s\"", ErrNilParameter, err)
	})
	t.Run("reports-every-problem", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &ClientConfig{Scope: DefaultScope, PathSuffixes: DefaultPathSuffixes()}
		err := c.Validate()
		require.Error(err)
		assert.Contains(err.Error(), "client id is empty")
		assert.Contains(err.Error(), "client secret is empty")
		assert.Contains(err.Error(), "discovery URL is empty")
		assert.Contains(err.Error(), "redirect URL is empty")
	})
	t.Run("stable-order", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &ClientConfig{
			ClientID:     "abc",
			ClientSecret: "shh",
			Scope:        DefaultScope,
			DiscoveryURL: "https://idp.example/.well-known/openid-configuration",
			RedirectURL:  "https://app/callback",
			PathSuffixes: PathSuffixes{Login: "a", Register: "b", EditProfile: "c"},
		}
		err := c.Validate()
		require.Error(err)
		want := err.Error()
		login := strings.Index(want, "login path suffix")
		register := strings.Index(want, "register path suffix")
		edit := strings.Index(want, "edit profile path suffix")
		assert.True(login >= 0 && login < register && register < edit, want)
		for i := 0; i < 20; i++ {
			assert.Equal(want, c.Validate().Error())
		}
	})
}

func TestParseClientConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		yaml      string
		want      *ClientConfig
		wantIsErr error
	}{
		{
			name: "valid",
			yaml: `
client_id: abc
client_secret: shh
redirect_url: https://app/callback
discovery_url: https://idp.example/.well-known/openid-configuration
path_suffixes:
  register: /signup
audiences:
  - api
`,
			want: &ClientConfig{
				ClientID:             "abc",
				ClientSecret:         "shh",
				RedirectURL:          "https://app/callback",
				DiscoveryURL:         "https://idp.example/.well-known/openid-configuration",
				Scope:                DefaultScope,
				PathSuffixes:         PathSuffixes{Login: DefaultLoginPath, Register: "/signup", EditProfile: DefaultEditProfilePath},
				SupportedSigningAlgs: []Alg{RS256},
				Audiences:            []string{"api"},
			},
		},
		{
			name:      "not-yaml",
			yaml:      "client_id: [",
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid",
			yaml: `
client_id: abc
redirect_url: https://app/callback
discovery_url: https://idp.example/.well-known/openid-configuration
`,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := ParseClientConfig([]byte(tt.yaml))
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestLoadClientConfig(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	_, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(err)

	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(os.WriteFile(path, []byte(`
client_id: abc
client_secret: shh
redirect_url: https://app/callback
discovery_url: https://idp.example/.well-known/openid-configuration
scope: openid
`), 0o600))
	c, err := LoadClientConfig(path)
	require.NoError(err)
	assert.Equal("abc", c.ClientID)
	assert.Equal("openid", c.Scope)
	assert.Equal(DefaultPathSuffixes(), c.PathSuffixes)
}
