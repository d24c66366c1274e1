// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odsdir/odssync/store"
)

const (
	// Timestamp layout already in use by the tables (day first).
	timeLayout = "02-01-2006 15:04:05"

	// User stamped on createdBy/modifiedBy.
	auditUser = "Admin"

	recordIDLen = 16
)

// title word-capitalizes a string.
func title(s string) string {
	return cases.Title(language.BritishEnglish).String(s)
}

// newRecordID synthesizes a 16-digit numeric identifier from a random
// UUID. The version bits guarantee at least 24 decimal digits, so the
// truncation is always safe.
func newRecordID() string {
	u := uuid.New()

	return new(big.Int).SetBytes(u[:]).String()[:recordIDLen]
}

// The UPRN is buried two extension levels deep in the first address.
// Any break in the path means the record simply has no UPRN.
func uprnOf(org *Organization) (string, bool) {
	if len(org.Address) == 0 {
		return "", false
	}

	ext := org.Address[0].Extension
	if len(ext) == 0 || len(ext[0].Extension) < 2 {
		return "", false
	}

	// The directory reports "NA" when no UPRN is assigned.
	v := ext[0].Extension[1].ValueString
	if v == "" || v == "NA" {
		return "", false
	}

	return v, true
}

// normalizeAddress title-cases the textual fields, passes the postcode
// through unchanged and drops the extension block.
func normalizeAddress(a Address) store.Address {
	lines := make([]string, 0, len(a.Line))
	for _, line := range a.Line {
		lines = append(lines, title(line))
	}

	return store.Address{
		Line:       lines,
		City:       title(a.City),
		District:   title(a.District),
		Country:    title(a.Country),
		PostalCode: a.PostalCode,
	}
}

// ProcessOrganizations turns the raw bundle entries into canonical
// location records. Entries whose resource is not an Organization
// (e.g. the OrganizationAffiliation rows the _include parameter drags
// in) are skipped. Each record gets its own synthesized id.
func ProcessOrganizations(entries []Entry, now time.Time) []store.Location {
	stamp := now.Format(timeLayout)

	processed := make([]store.Location, 0, len(entries))

	for i := range entries {
		org := &entries[i].Resource
		if org.ResourceType != "Organization" {
			continue
		}

		addresses := make([]store.Address, 0, len(org.Address))
		for _, a := range org.Address {
			addresses = append(addresses, normalizeAddress(a))
		}

		loc := store.Location{
			ID:                   newRecordID(),
			LookupField:          org.ID,
			Active:               "true",
			Name:                 title(org.Name),
			Address:              addresses,
			CreatedDateTime:      stamp,
			CreatedBy:            auditUser,
			ModifiedBy:           auditUser,
			ModifiedDateTime:     stamp,
			ManagingOrganization: "",
		}

		if uprn, ok := uprnOf(org); ok {
			loc.UPRN = uprn
		}

		processed = append(processed, loc)
	}

	return processed
}
