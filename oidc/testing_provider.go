// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/cap-rp/oidc/internal/strutils"
	"github.com/stretchr/testify/require"
)

// Test provider defaults.
const (
	TestClientID     = "test-rp"
	TestClientSecret = "test-rp-secret"
	TestRedirectURL  = "https://rp.example.com/callback"
	TestSubject      = "alice-0001"
	TestAuthCode     = "test-auth-code"
	TestAccessToken  = "test-access-token"
	TestRefreshToken = "test-refresh-token"
	TestSigningKeyID = "test-signing-key"
)

// TestProvider is a local TLS identity provider which makes writing tests of
// the relying party flows much easier. It serves discovery, the login,
// register and profile authorize endpoints, token, userinfo, JWKS and end
// session. Tokens are signed with an ES256 key generated per provider.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	publicKey  crypto.PublicKey
	privateKey crypto.PrivateKey
	jwks       *jose.JSONWebKeySet

	mu                  sync.Mutex
	clientID            string
	clientSecret        string
	allowedRedirectURIs []string
	expectedAuthCode    string
	lastNonce           string
	userInfo            map[string]interface{}
	customClaims        map[string]interface{}
	customAudience      string
	idTokenTTL          time.Duration
	omitAccessToken     bool
	omitIDToken         bool
	omitJWKS            bool
	disableEndSession   bool
	tokenStatus         int
	userInfoStatus      int
	tokenRequests       int
	userInfoRequests    int

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider which is stopped when
// the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID:         TestClientID,
		clientSecret:     TestClientSecret,
		expectedAuthCode: TestAuthCode,
		idTokenTTL:       5 * time.Minute,
		userInfo: map[string]interface{}{
			"sub":   TestSubject,
			"email": "alice@example.com",
			"name":  "Alice Example",
		},
		t: t,
	}
	p.publicKey, p.privateKey = TestGenerateKeys(t)
	p.jwks = TestJWKS(t, p.publicKey, ES256, TestSigningKeyID)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the provider's base URL, which is also its issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// DiscoveryURL returns the provider's discovery document URL.
func (p *TestProvider) DiscoveryURL() string {
	return p.Addr() + "/.well-known/openid-configuration"
}

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns an http client which trusts the provider's CA and
// doesn't follow redirects.
func (p *TestProvider) HTTPClient() *http.Client {
	c := p.httpServer.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// SigningKey returns the provider's private key and its key id.
func (p *TestProvider) SigningKey() (crypto.PrivateKey, string) {
	return p.privateKey, TestSigningKeyID
}

// ClientConfig returns a valid ClientConfig for the provider using the test
// client credentials and ES256 id_token validation.
func (p *TestProvider) ClientConfig(opt ...Option) *ClientConfig {
	p.t.Helper()
	opts := append([]Option{
		WithProviderCA(p.CACert()),
		WithSupportedSigningAlgs(ES256),
	}, opt...)
	c, err := NewClientConfig(p.DiscoveryURL(), TestClientID, TestClientSecret, TestRedirectURL, opts...)
	require.NoError(p.t, err)
	return c
}

// SetClientCreds configures the client credentials the token endpoint
// accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the code returned by the authorize
// endpoints and accepted by the token endpoint.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetAllowedRedirectURIs restricts the redirect_uri values the token endpoint
// accepts. Any value is accepted when none are set.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetNonce sets the nonce claim of the next id_token issued. It's normally
// taken from the last authorize request.
func (p *TestProvider) SetNonce(nonce string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastNonce = nonce
}

// SetUserInfoReply sets the userinfo endpoint's response.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfo = claims
}

// SetCustomClaims sets additional claims for issued id_tokens.
func (p *TestProvider) SetCustomClaims(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = claims
}

// SetCustomAudience replaces the client id as the aud of issued id_tokens.
func (p *TestProvider) SetCustomAudience(aud string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customAudience = aud
}

// SetIDTokenTTL sets the lifetime of issued id_tokens. A negative ttl issues
// expired tokens.
func (p *TestProvider) SetIDTokenTTL(ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idTokenTTL = ttl
}

// OmitAccessToken makes the token endpoint reply without an access_token.
func (p *TestProvider) OmitAccessToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitAccessToken = true
}

// OmitIDTokens makes the token endpoint reply without an id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// OmitJWKS removes the jwks_uri from the discovery document.
func (p *TestProvider) OmitJWKS() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitJWKS = true
}

// DisableEndSession removes the end_session_endpoint from the discovery
// document.
func (p *TestProvider) DisableEndSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableEndSession = true
}

// SetTokenStatus makes the token endpoint fail with the status code.
func (p *TestProvider) SetTokenStatus(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = code
}

// SetUserInfoStatus makes the userinfo endpoint fail with the status code.
func (p *TestProvider) SetUserInfoStatus(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfoStatus = code
}

// TokenRequests returns the number of token endpoint requests served.
func (p *TestProvider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// UserInfoRequests returns the number of userinfo endpoint requests served.
func (p *TestProvider) UserInfoRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userInfoRequests
}

// IssueIDToken returns an id_token signed by the provider for the client
// with the nonce.
func (p *TestProvider) IssueIDToken(nonce string) string {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, err := p.issueIDToken(nonce)
	require.NoError(p.t, err)
	return raw
}

// issueIDToken requires the lock. It's called from handlers, so it returns
// errors rather than failing the test.
func (p *TestProvider) issueIDToken(nonce string) (string, error) {
	claims := TestIDTokenClaims(p.Addr(), p.clientID, TestSubject, p.idTokenTTL)
	if p.customAudience != "" {
		claims.Audience = jwt.Audience{p.customAudience}
	}
	private := map[string]interface{}{}
	if nonce != "" {
		private["nonce"] = nonce
	}
	for k, v := range p.customClaims {
		private[k] = v
	}
	return signJWT(p.privateKey, ES256, TestSigningKeyID, claims, private)
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, status int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) writeTokenError(w http.ResponseWriter, status int, code, desc string) {
	p.writeJSON(w, status, struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{code, desc})
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := discoveryDocument{
			Issuer:                p.Addr(),
			AuthorizationEndpoint: p.Addr() + DefaultLoginPath,
			TokenEndpoint:         p.Addr() + "/token",
			UserInfoEndpoint:      p.Addr() + "/userinfo",
			EndSessionEndpoint:    p.Addr() + "/logout",
			JWKSURI:               p.Addr() + "/certs",
			IDTokenSigningAlgs:    []string{string(ES256)},
		}
		if p.omitJWKS {
			reply.JWKSURI = ""
		}
		if p.disableEndSession {
			reply.EndSessionEndpoint = ""
		}
		p.writeJSON(w, http.StatusOK, &reply)

	case DefaultLoginPath, DefaultRegisterPath, DefaultEditProfilePath:
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		redirectURI := qv.Get("redirect_uri")
		if redirectURI == "" || qv.Get("response_type") != "code" || qv.Get("client_id") != p.clientID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.lastNonce = qv.Get("nonce")
		back := url.Values{"code": {p.expectedAuthCode}}
		if s := qv.Get("state"); s != "" {
			back.Set("state", s)
		}
		http.Redirect(w, req, redirectURI+"?"+back.Encode(), http.StatusFound)

	case "/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.tokenRequests++
		if p.tokenStatus != 0 {
			p.writeTokenError(w, p.tokenStatus, "server_error", "token endpoint unavailable")
			return
		}
		switch {
		case req.FormValue("grant_type") != "authorization_code":
			p.writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "bad grant_type")
			return
		case req.FormValue("client_id") != p.clientID || req.FormValue("client_secret") != p.clientSecret:
			p.writeTokenError(w, http.StatusUnauthorized, "invalid_client", "bad client credentials")
			return
		case len(p.allowedRedirectURIs) > 0 && !strutils.ContainsAny(p.allowedRedirectURIs, req.FormValue("redirect_uri")):
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri is not allowed")
			return
		case req.FormValue("code") != p.expectedAuthCode:
			p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "unexpected auth code")
			return
		}
		reply := map[string]interface{}{
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": TestRefreshToken,
		}
		if !p.omitAccessToken {
			reply["access_token"] = TestAccessToken
		}
		if !p.omitIDToken {
			idToken, err := p.issueIDToken(p.lastNonce)
			if err != nil {
				p.writeTokenError(w, http.StatusInternalServerError, "server_error", err.Error())
				return
			}
			reply["id_token"] = idToken
		}
		p.writeJSON(w, http.StatusOK, reply)

	case "/userinfo":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.userInfoRequests++
		if p.userInfoStatus != 0 {
			w.WriteHeader(p.userInfoStatus)
			return
		}
		if strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ") != TestAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p.writeJSON(w, http.StatusOK, p.userInfo)

	case "/certs":
		if req.Method != http.MethodGet || p.omitJWKS {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeJSON(w, http.StatusOK, p.jwks)

	case "/logout":
		if p.disableEndSession {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r := req.URL.Query().Get("post_logout_redirect_uri"); r != "" {
			http.Redirect(w, req, r, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
