// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Token endpoint of the terminology realm, relative to the API domain.
const tokenPath = "/authorisation/auth/realms/terminology/protocol/openid-connect/token"

// NewTokenSource returns a caching token source that performs the
// client-credentials grant against the terminology realm. The directory
// expects the credentials form-encoded in the request body.
func NewTokenSource(ctx context.Context, domain, clientID, clientSecret string) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimRight(domain, "/") + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return cfg.TokenSource(ctx)
}
