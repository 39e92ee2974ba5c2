// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/hashicorp/cap-rp/oidc"
)

// StoreFunc returns the Store for the request's browser session.
type StoreFunc func(w http.ResponseWriter, req *http.Request) (Store, error)

// ErrorResponseFunc is used by the handlers to create a http response when
// a request fails.
//
// It gets the provider's authentication error response when the provider
// redirected back with an error, or the error raised while processing the
// request. The function should use the http.ResponseWriter to send back
// whatever content (headers, html, JSON, etc) it wishes.
type ErrorResponseFunc func(respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents Oauth2 error responses. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string
	Description string
	URI         string
}

// ReturnToParam is the query parameter LoginHandler reads the return to
// target from.
const ReturnToParam = "return_to"

// Middleware only lets authenticated sessions reach next. Anonymous
// sessions are redirected (302) to the provider's login with the request's
// URL saved as the return to target.
func (g *Guard) Middleware(sFn StoreFunc, eFn ErrorResponseFunc, next http.Handler) http.Handler {
	eFn = g.errorFunc(eFn)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s, err := sFn(w, req)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		d, err := g.RequireAuth(req.Context(), s, req.URL.RequestURI())
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		if !d.Allow {
			http.Redirect(w, req, d.RedirectURL, http.StatusFound)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// LoginHandler redirects to the provider flow for the purpose. The
// return_to query parameter is used as the return to target when it's a
// local path.
func (g *Guard) LoginHandler(sFn StoreFunc, p oidc.Purpose, eFn ErrorResponseFunc) http.HandlerFunc {
	eFn = g.errorFunc(eFn)
	return func(w http.ResponseWriter, req *http.Request) {
		s, err := sFn(w, req)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		returnTo := req.FormValue(ReturnToParam)
		if !isLocalPath(returnTo) {
			returnTo = ""
		}
		u, err := g.BeginFlow(req.Context(), s, p, returnTo)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		http.Redirect(w, req, u, http.StatusFound)
	}
}

// CallbackHandler completes the flow with the provider's redirect and sends
// the user to the flow's return to target. A callback without a code gets a
// 400 "authorization code missing".
func (g *Guard) CallbackHandler(sFn StoreFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	eFn = g.errorFunc(eFn)
	return func(w http.ResponseWriter, req *http.Request) {
		if e := req.FormValue("error"); e != "" {
			// the attempt is over, so its flow can't be completed later.
			if s, err := sFn(w, req); err == nil {
				if err := g.discardFlow(req.Context(), s); err != nil {
					g.logger.Warn("unable to discard pending flow", "error", err)
				}
			}
			// get parameters from either the body or query parameters.
			// FormValue prioritizes body values, if found
			eFn(&AuthenErrorResponse{
				Error:       e,
				Description: req.FormValue("error_description"),
				URI:         req.FormValue("error_uri"),
			}, nil, w, req)
			return
		}
		code := req.FormValue("code")
		if code == "" {
			http.Error(w, "authorization code missing", http.StatusBadRequest)
			return
		}
		s, err := sFn(w, req)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		returnTo, err := g.CompleteCallback(req.Context(), s, code, req.FormValue("state"))
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		http.Redirect(w, req, returnTo, http.StatusFound)
	}
}

// LogoutHandler logs the session out and redirects to the provider's end
// session endpoint, which will send the user to postLogoutRedirect when it's
// not empty.
func (g *Guard) LogoutHandler(sFn StoreFunc, postLogoutRedirect string, eFn ErrorResponseFunc) http.HandlerFunc {
	eFn = g.errorFunc(eFn)
	return func(w http.ResponseWriter, req *http.Request) {
		s, err := sFn(w, req)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		u, err := g.Logout(req.Context(), s, postLogoutRedirect)
		if err != nil {
			eFn(nil, err, w, req)
			return
		}
		http.Redirect(w, req, u, http.StatusFound)
	}
}

// errorFunc returns eFn, or the default response when it's nil.
func (g *Guard) errorFunc(eFn ErrorResponseFunc) ErrorResponseFunc {
	if eFn != nil {
		return eFn
	}
	return func(respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
		switch {
		case respErr != nil:
			g.logger.Debug("provider returned an error", "error", respErr.Error, "description", respErr.Description)
			http.Error(w, "authentication failed: "+respErr.Error, http.StatusUnauthorized)
		case errors.Is(e, oidc.ErrLoginFailed):
			g.logger.Debug("login failed", "error", e)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
		default:
			g.logger.Error("request failed", "path", req.URL.Path, "error", e)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// isLocalPath reports whether u is a path on this host. Browsers drop tabs
// and newlines and treat a backslash as a slash, so any of those or another
// control character makes u unsafe to redirect to.
func isLocalPath(u string) bool {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return false
	}
	for _, r := range u {
		if r == '\\' || unicode.IsControl(r) {
			return false
		}
	}
	pu, err := url.Parse(u)
	if err != nil {
		return false
	}
	return pu.Scheme == "" && pu.Host == ""
}
