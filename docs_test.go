// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package caprp_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-rp/oidc"
	"github.com/hashicorp/cap-rp/session"
)

func Example_session() {
	ctx := context.Background()

	// Create a new ClientConfig
	cfg, err := oidc.NewClientConfig(
		"https://your-issuer.com/.well-known/openid-configuration",
		"your_client_id",
		"your_client_secret",
		"http://localhost:8080/callback",
	)
	if err != nil {
		// handle error
	}

	// Create a client, which discovers the provider's endpoints.
	c, err := oidc.NewClient(ctx, cfg)
	if err != nil {
		// handle error
	}
	defer c.Done()

	// Create a guard for the client.
	g, err := session.NewGuard(c)
	if err != nil {
		// handle error
	}

	// A single store is only suitable for a single user. Real applications
	// return the Store of the request's browser session.
	store := session.NewMemoryStore()
	storeFn := func(http.ResponseWriter, *http.Request) (session.Store, error) {
		return store, nil
	}

	profile := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		info, _, err := g.UserInfo(req.Context(), store)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "hello %s", info.Name())
	})

	http.Handle("/login", g.LoginHandler(storeFn, oidc.PurposeLogin, nil))
	http.Handle("/callback", g.CallbackHandler(storeFn, nil))
	http.Handle("/logout", g.LogoutHandler(storeFn, "http://localhost:8080/", nil))
	http.Handle("/profile", g.Middleware(storeFn, nil, profile))

	if err := http.ListenAndServe("localhost:8080", nil); err != nil {
		// handle error
	}
}
