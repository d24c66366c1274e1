// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists canonical location records in DynamoDB and
// links them against the organisations table.
package store

// Location is the canonical record kept in the locations table.
//
// lookup_field carries the ODS organization id and acts as the natural
// key for deduplication; id is a synthesized 16-digit identifier used
// as the table key. Records are never deleted, and the only in-place
// mutation is setting managingOrganization once a matching
// organisations entry appears.
type Location struct {
	ID                   string    `dynamodbav:"id" json:"id"`
	LookupField          string    `dynamodbav:"lookup_field" json:"lookup_field"`
	Active               string    `dynamodbav:"active" json:"active"`
	Name                 string    `dynamodbav:"name" json:"name"`
	Address              []Address `dynamodbav:"Address" json:"Address"`
	CreatedDateTime      string    `dynamodbav:"createdDateTime" json:"createdDateTime"`
	CreatedBy            string    `dynamodbav:"createdBy" json:"createdBy"`
	ModifiedBy           string    `dynamodbav:"modifiedBy" json:"modifiedBy"`
	ModifiedDateTime     string    `dynamodbav:"modifiedDateTime" json:"modifiedDateTime"`
	UPRN                 string    `dynamodbav:"UPRN,omitempty" json:"UPRN,omitempty"`
	Position             Position  `dynamodbav:"position" json:"position"`
	ManagingOrganization string    `dynamodbav:"managingOrganization" json:"managingOrganization"`
}

// Address is a normalized postal address. The raw FHIR extension block
// is deliberately absent; it never reaches the table.
type Address struct {
	Line       []string `dynamodbav:"line,omitempty" json:"line,omitempty"`
	City       string   `dynamodbav:"city,omitempty" json:"city,omitempty"`
	District   string   `dynamodbav:"district,omitempty" json:"district,omitempty"`
	Country    string   `dynamodbav:"country,omitempty" json:"country,omitempty"`
	PostalCode string   `dynamodbav:"postalCode,omitempty" json:"postalCode,omitempty"`
}

// Position is a placeholder coordinate pair. The directory does not
// provide coordinates, so both fields stay empty until some other
// process fills them in.
type Position struct {
	Longitude string `dynamodbav:"longitude" json:"longitude"`
	Latitude  string `dynamodbav:"latitude" json:"latitude"`
}

// Organisation is the slice of the organisations table the linker
// cares about.
type Organisation struct {
	ID         string     `dynamodbav:"id" json:"id"`
	Name       string     `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Identifier Identifier `dynamodbav:"identifier" json:"identifier"`
}

// Identifier mirrors the FHIR identifier structure stored with each
// organisation.
type Identifier struct {
	System string `dynamodbav:"system,omitempty" json:"system,omitempty"`
	Value  string `dynamodbav:"value" json:"value"`
}
