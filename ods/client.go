// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/odsdir/odssync/store"
	"github.com/odsdir/odssync/utils/httputils"
)

// ClientOptions configuration for the directory client.
type ClientOptions struct {
	// CodesPath is the workbook listing the ODS codes to sync
	CodesPath string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Skips the code-driven affiliation pass
	SkipAffiliations bool

	// Skips the fixed special-case organization pass
	SkipYOrganizations bool

	// Dry run, don't persist any change
	DryRun bool
}

// ClientMetrics tracks various metrics collected during a sync run.
type ClientMetrics struct {
	SyncMetrics
	LinkMetrics
}

// Merge combines the metrics from another ClientMetrics instance into this one.
func (m *ClientMetrics) Merge(other *ClientMetrics) *ClientMetrics {
	if other == nil {
		return m
	}

	m.SyncMetrics.Merge(&other.SyncMetrics)
	m.LinkMetrics.Merge(&other.LinkMetrics)

	return m
}

// Client reads organization bundles from the ODS FHIR directory and
// feeds the normalized records into the location repository.
type Client struct {
	baseURL string
	client  *http.Client
	options *ClientOptions
	repo    store.LocationRepository
	Metrics ClientMetrics
}

// NewClient creates a directory client. The token source owns the
// client-credentials exchange; every read carries the bearer token it
// produces.
func NewClient(options *ClientOptions, domain string, source oauth2.TokenSource, repo store.LocationRepository) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "odssync/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		Transport: loggingTransport,
	}

	client := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   headerTransport,
		},
	}

	return &Client{
		baseURL: strings.TrimRight(domain, "/"),
		client:  client,
		options: options,
		repo:    repo,
	}
}

// API read paths, relative to the domain.
const (
	affiliationPath  = "/fhir/OrganizationAffiliation"
	organizationPath = "/fhir/Organization"
)

// readBundle issues a single parameterized read against the directory.
// A non-200 answer is an error; the caller decides whether to continue.
func (c *Client) readBundle(ctx context.Context, path string, params url.Values) (bundle *Bundle, err error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", path, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing resp.Body: %w", cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("reading %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	bundle = &Bundle{}
	if err := json.NewDecoder(resp.Body).Decode(bundle); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}

	return bundle, err
}
