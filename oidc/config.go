// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/cap-rp/oidc/internal/strutils"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultScope is requested when no scope is configured.
const DefaultScope = "openid profile email"

// Default path suffixes appended to the issuer for each Purpose.
const (
	DefaultLoginPath       = "/authorize"
	DefaultRegisterPath    = "/register"
	DefaultEditProfilePath = "/personal-details"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// PathSuffixes are the provider specific paths, relative to the issuer, used
// to build authorization URLs for each Purpose.
type PathSuffixes struct {
	Login       string `yaml:"login"`
	Register    string `yaml:"register"`
	EditProfile string `yaml:"edit_profile"`
}

// DefaultPathSuffixes returns the default PathSuffixes.
func DefaultPathSuffixes() PathSuffixes {
	return PathSuffixes{
		Login:       DefaultLoginPath,
		Register:    DefaultRegisterPath,
		EditProfile: DefaultEditProfilePath,
	}
}

// ClientConfig represents the relying party's configuration for the
// authorization code flow.
type ClientConfig struct {
	// ClientID is the relying party id
	ClientID string `yaml:"client_id"`

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret `yaml:"client_secret"`

	// RedirectURL is where the provider sends the user-agent with the
	// authorization code.
	RedirectURL string `yaml:"redirect_url"`

	// Scope is the space delimited scope string sent as-is with
	// authorization requests.
	Scope string `yaml:"scope"`

	// DiscoveryURL is the provider's OIDC discovery document URL.
	DiscoveryURL string `yaml:"discovery_url"`

	// PathSuffixes for the login, registration and profile edit flows.
	PathSuffixes PathSuffixes `yaml:"path_suffixes"`

	// SupportedSigningAlgs is a list of algorithms accepted when validating
	// an id_token. Defaults to RS256.
	SupportedSigningAlgs []Alg `yaml:"supported_signing_algs"`

	// Audiences is an optional list of additional audiences accepted when
	// validating an id_token's "aud" claim.
	Audiences []string `yaml:"audiences"`

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string `yaml:"provider_ca"`
}

// NewClientConfig composes a new config for a Client.
// Supported options:
//   - WithScope
//   - WithPathSuffixes
//   - WithSupportedSigningAlgs
//   - WithAudiences
//   - WithProviderCA
func NewClientConfig(discoveryURL, clientID string, clientSecret ClientSecret, redirectURL string, opt ...Option) (*ClientConfig, error) {
	const op = "NewClientConfig"
	opts := getClientConfigOpts(opt...)
	c := &ClientConfig{
		DiscoveryURL:         discoveryURL,
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		RedirectURL:          redirectURL,
		Scope:                opts.withScope,
		PathSuffixes:         opts.withPathSuffixes,
		SupportedSigningAlgs: opts.withSupportedSigningAlgs,
		Audiences:            opts.withAudiences,
		ProviderCA:           opts.withProviderCA,
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid client config: %w", op, err)
	}
	return c, nil
}

// LoadClientConfig reads a YAML encoded ClientConfig from path, applies
// defaults and validates it.
func LoadClientConfig(path string) (*ClientConfig, error) {
	const op = "LoadClientConfig"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read %s: %w", op, path, err)
	}
	c, err := ParseClientConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ParseClientConfig decodes a YAML encoded ClientConfig, applies defaults and
// validates it.
func ParseClientConfig(data []byte) (*ClientConfig, error) {
	const op = "ParseClientConfig"
	var c ClientConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: unable to decode config: %w: %w", op, ErrInvalidParameter, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid client config: %w", op, err)
	}
	return &c, nil
}

func (c *ClientConfig) applyDefaults() {
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	def := DefaultPathSuffixes()
	if c.PathSuffixes.Login == "" {
		c.PathSuffixes.Login = def.Login
	}
	if c.PathSuffixes.Register == "" {
		c.PathSuffixes.Register = def.Register
	}
	if c.PathSuffixes.EditProfile == "" {
		c.PathSuffixes.EditProfile = def.EditProfile
	}
	if len(c.SupportedSigningAlgs) == 0 {
		c.SupportedSigningAlgs = []Alg{RS256}
	}
}

// Validate the client configuration. It doesn't verify the DiscoveryURL is
// reachable. All problems found are returned together.
func (c *ClientConfig) Validate() error {
	const op = "ClientConfig.Validate"
	if c == nil {
		return fmt.Errorf("%s: client config is nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if c.ClientID == "" {
		errs = multierror.Append(errs, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		errs = multierror.Append(errs, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if strings.TrimSpace(c.Scope) == "" {
		errs = multierror.Append(errs, fmt.Errorf("scope is empty: %w", ErrInvalidParameter))
	}
	if err := validateURL("discovery URL", c.DiscoveryURL); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := validateURL("redirect URL", c.RedirectURL); err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, p := range []struct{ name, suffix string }{
		{"login", c.PathSuffixes.Login},
		{"register", c.PathSuffixes.Register},
		{"edit profile", c.PathSuffixes.EditProfile},
	} {
		if !strings.HasPrefix(p.suffix, "/") {
			errs = multierror.Append(errs, fmt.Errorf("%s path suffix %q must begin with /: %w", p.name, p.suffix, ErrInvalidParameter))
		}
	}
	for _, a := range c.SupportedSigningAlgs {
		if !supportedAlgorithms[a] {
			errs = multierror.Append(errs, fmt.Errorf("unsupported algorithm %s: %w", a, ErrInvalidParameter))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is empty: %w", name, ErrInvalidParameter)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is invalid: %w: %w", name, raw, ErrInvalidParameter, err)
	}
	if !strutils.ContainsAny([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("%s %q scheme %q is not http or https: %w", name, raw, u.Scheme, ErrInvalidParameter)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q has no host: %w", name, raw, ErrInvalidParameter)
	}
	return nil
}

// clientConfigOptions is the set of available options
type clientConfigOptions struct {
	withScope                string
	withPathSuffixes         PathSuffixes
	withSupportedSigningAlgs []Alg
	withAudiences            []string
	withProviderCA           string
}

// clientConfigDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func clientConfigDefaults() clientConfigOptions {
	return clientConfigOptions{
		withScope:        DefaultScope,
		withPathSuffixes: DefaultPathSuffixes(),
	}
}

// getClientConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getClientConfigOpts(opt ...Option) clientConfigOptions {
	opts := clientConfigDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScope provides an optional space delimited scope string for the
// client's config.
func WithScope(scope string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientConfigOptions); ok {
			o.withScope = scope
		}
	}
}

// WithPathSuffixes provides optional path suffixes for the client's config.
// Empty fields keep their defaults.
func WithPathSuffixes(p PathSuffixes) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientConfigOptions); ok {
			o.withPathSuffixes = p
		}
	}
}

// WithSupportedSigningAlgs provides optional algorithms used when validating
// id_tokens.
func WithSupportedSigningAlgs(algs ...Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientConfigOptions); ok {
			o.withSupportedSigningAlgs = algs
		}
	}
}

// WithAudiences provides an optional list of audiences for the client's config
func WithAudiences(auds ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientConfigOptions); ok {
			o.withAudiences = strutils.RemoveDuplicatesStable(auds)
		}
	}
}

// WithProviderCA provides an optional CA cert for the client's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientConfigOptions); ok {
			o.withProviderCA = cert
		}
	}
}
