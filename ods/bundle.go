// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package ods reads organization records from the ODS FHIR directory
// and turns them into canonical location records.
package ods

// Bundle is the FHIR search envelope returned by the directory.
type Bundle struct {
	ResourceType string  `json:"resourceType"`
	Total        int     `json:"total"`
	Entry        []Entry `json:"entry"`
}

// Entry wraps a single resource inside a bundle.
type Entry struct {
	FullURL  string       `json:"fullUrl"`
	Resource Organization `json:"resource"`
}

// Organization is the raw FHIR organization resource, limited to the
// fields the sync job consumes. Bundles also carry other resource
// types (e.g. OrganizationAffiliation); those keep their resourceType
// and are filtered out during normalization.
type Organization struct {
	ResourceType string    `json:"resourceType"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      []Address `json:"address"`
}

// Address as delivered by the directory, extensions included.
type Address struct {
	Line       []string    `json:"line"`
	City       string      `json:"city"`
	District   string      `json:"district"`
	Country    string      `json:"country"`
	PostalCode string      `json:"postalCode"`
	Extension  []Extension `json:"extension"`
}

// Extension is the FHIR extension structure. The UPRN lives two levels
// deep: address[0].extension[0].extension[1].valueString.
type Extension struct {
	URL         string      `json:"url"`
	ValueString string      `json:"valueString"`
	Extension   []Extension `json:"extension"`
}
