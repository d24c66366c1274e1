// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenSource(t *testing.T) {
	var gotPath, gotGrant, gotID, gotSecret string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseForm())
		gotGrant = r.PostForm.Get("grant_type")
		gotID = r.PostForm.Get("client_id")
		gotSecret = r.PostForm.Get("client_secret")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	// Trailing slash on the domain must not produce a double slash.
	ts := NewTokenSource(context.Background(), srv.URL+"/", "client-id", "client-secret")

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)

	assert.Equal(t, tokenPath, gotPath)
	assert.Equal(t, "client_credentials", gotGrant)
	assert.Equal(t, "client-id", gotID)
	assert.Equal(t, "client-secret", gotSecret)
}

func TestNewTokenSourceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(context.Background(), srv.URL, "client-id", "wrong-secret")

	_, err := ts.Token()
	assert.Error(t, err)
}
