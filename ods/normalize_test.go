// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsdir/odssync/store"
)

func uprnExtension(value string) []Extension {
	return []Extension{
		{
			URL: "https://fhir.nhs.uk/StructureDefinition/Extension-ODS-AddressKey",
			Extension: []Extension{
				{URL: "type", ValueString: "UPRN"},
				{URL: "value", ValueString: value},
			},
		},
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    Address
		expected store.Address
	}{
		{
			name: "title cases text fields and keeps the postcode",
			input: Address{
				Line:       []string{"1 high street", "sandford industrial estate"},
				City:       "leeds",
				District:   "west yorkshire",
				Country:    "ENGLAND",
				PostalCode: "LS1 1AA",
			},
			expected: store.Address{
				Line:       []string{"1 High Street", "Sandford Industrial Estate"},
				City:       "Leeds",
				District:   "West Yorkshire",
				Country:    "England",
				PostalCode: "LS1 1AA",
			},
		},
		{
			name: "drops the extension block",
			input: Address{
				City:      "york",
				Extension: uprnExtension("100023336956"),
			},
			expected: store.Address{
				City: "York",
			},
		},
		{
			name:     "empty address stays empty",
			input:    Address{},
			expected: store.Address{Line: []string{}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := normalizeAddress(test.input)

			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("normalized address mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestProcessOrganizations(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)

	entries := []Entry{
		{
			Resource: Organization{
				ResourceType: "Organization",
				ID:           "ABC123",
				Name:         "st mary clinic",
				Address: []Address{
					{
						Line:       []string{"1 high street"},
						City:       "leeds",
						Country:    "england",
						PostalCode: "LS1 1AA",
						Extension:  uprnExtension("100023336956"),
					},
				},
			},
		},
	}

	locations := ProcessOrganizations(entries, now)
	require.Len(t, locations, 1)

	loc := locations[0]
	assert.Equal(t, "ABC123", loc.LookupField)
	assert.Equal(t, "St Mary Clinic", loc.Name)
	assert.Equal(t, "true", loc.Active)
	assert.Equal(t, "100023336956", loc.UPRN)
	assert.Equal(t, "01-02-2025 10:30:00", loc.CreatedDateTime)
	assert.Equal(t, "01-02-2025 10:30:00", loc.ModifiedDateTime)
	assert.Equal(t, "Admin", loc.CreatedBy)
	assert.Equal(t, "Admin", loc.ModifiedBy)
	assert.Empty(t, loc.ManagingOrganization)
	assert.Empty(t, loc.Position.Latitude)
	assert.Empty(t, loc.Position.Longitude)

	require.Len(t, loc.Address, 1)
	assert.Equal(t, []string{"1 High Street"}, loc.Address[0].Line)
	assert.Equal(t, "Leeds", loc.Address[0].City)
}

func TestProcessOrganizationsOmitsMissingUPRN(t *testing.T) {
	tests := []struct {
		name string
		addr []Address
	}{
		{name: "no address at all", addr: nil},
		{name: "no extension", addr: []Address{{City: "leeds"}}},
		{
			name: "wrapper extension too short",
			addr: []Address{{Extension: []Extension{{URL: "x", Extension: []Extension{{URL: "type"}}}}}},
		},
		{
			name: "empty value string",
			addr: []Address{{Extension: uprnExtension("")}},
		},
		{
			name: "NA placeholder",
			addr: []Address{{Extension: uprnExtension("NA")}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			entries := []Entry{
				{
					Resource: Organization{
						ResourceType: "Organization",
						ID:           "ABC123",
						Name:         "clinic",
						Address:      test.addr,
					},
				},
			}

			locations := ProcessOrganizations(entries, time.Now())
			require.Len(t, locations, 1)
			assert.Empty(t, locations[0].UPRN)
		})
	}
}

func TestProcessOrganizationsSkipsOtherResources(t *testing.T) {
	entries := []Entry{
		{Resource: Organization{ResourceType: "OrganizationAffiliation", ID: "AFF1"}},
		{Resource: Organization{ResourceType: "Organization", ID: "ORG1", Name: "one"}},
		{Resource: Organization{ResourceType: "Organization", ID: "ORG2", Name: "two"}},
	}

	locations := ProcessOrganizations(entries, time.Now())
	require.Len(t, locations, 2)
	assert.Equal(t, "ORG1", locations[0].LookupField)
	assert.Equal(t, "ORG2", locations[1].LookupField)
}

func TestProcessOrganizationsSynthesizesUniqueIDs(t *testing.T) {
	entries := []Entry{
		{Resource: Organization{ResourceType: "Organization", ID: "ORG1", Name: "one"}},
		{Resource: Organization{ResourceType: "Organization", ID: "ORG2", Name: "two"}},
	}

	locations := ProcessOrganizations(entries, time.Now())
	require.Len(t, locations, 2)
	assert.NotEqual(t, locations[0].ID, locations[1].ID)
}

func TestNewRecordID(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		id := newRecordID()
		require.Len(t, id, recordIDLen)

		for _, r := range id {
			require.True(t, r >= '0' && r <= '9', "id %q is not numeric", id)
		}

		require.False(t, seen[id], "id %q repeated", id)
		seen[id] = true
	}
}
