// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/odsdir/odssync/store"
)

// SyncMetrics tracks statistics during the fetch passes.
type SyncMetrics struct {
	Queries     int // directory reads attempted
	QueryErrors int // directory reads that failed
	Entries     int // raw bundle entries seen
	Processed   int // organizations normalized
	Stored      int // new records written
	Skipped     int // records already present
	StoreErrors int // records that failed to store
}

// Merge combines two SyncMetrics.
func (f *SyncMetrics) Merge(o *SyncMetrics) *SyncMetrics {
	f.Queries += o.Queries
	f.QueryErrors += o.QueryErrors
	f.Entries += o.Entries
	f.Processed += o.Processed
	f.Stored += o.Stored
	f.Skipped += o.Skipped
	f.StoreErrors += o.StoreErrors

	return f
}

// LinkMetrics tracks statistics about the cross-link phase.
type LinkMetrics struct {
	Linked int
}

// Merge combines two LinkMetrics.
func (f *LinkMetrics) Merge(o *LinkMetrics) *LinkMetrics {
	f.Linked += o.Linked

	return f
}

// syncQuery runs one directory read and stores whatever it yields.
// Failures are logged and counted, never escalated; the next query
// still runs.
func (c *Client) syncQuery(ctx context.Context, path string, params url.Values, metrics *SyncMetrics) {
	metrics.Queries++

	bundle, err := c.readBundle(ctx, path, params)
	if err != nil {
		metrics.QueryErrors++

		log.Printf("Failed to fetch data from the ODS API: %v", err)

		return
	}

	metrics.Entries += len(bundle.Entry)

	locations := ProcessOrganizations(bundle.Entry, time.Now())
	c.storeLocations(ctx, locations, metrics)
}

// storeLocations deduplicates on lookup_field and persists the new
// records. Per-record failures are logged and counted.
func (c *Client) storeLocations(ctx context.Context, locations []store.Location, metrics *SyncMetrics) {
	for i := range locations {
		loc := &locations[i]
		metrics.Processed++

		exists, err := c.repo.Exists(ctx, loc.LookupField)
		if err != nil {
			metrics.StoreErrors++

			log.Printf("Dedup check failed for %q: %v", loc.LookupField, err)

			continue
		}

		if exists {
			metrics.Skipped++

			continue
		}

		if !c.options.DryRun {
			if err := c.repo.Save(ctx, loc); err != nil {
				// A duplicate id means somebody else inserted the record
				// between the check and the put; that is a skip, not a failure.
				if errors.Is(err, store.ErrDuplicateID) {
					metrics.Skipped++

					continue
				}

				metrics.StoreErrors++

				log.Printf("Failed to store %q: %v", loc.LookupField, err)

				continue
			}
		}

		metrics.Stored++
	}
}

// SyncAffiliations runs the code-driven batch pass: one affiliation
// query per ODS code listed in the workbook.
func (c *Client) SyncAffiliations(ctx context.Context) error {
	codes, err := ReadCodes(c.options.CodesPath)
	if err != nil {
		return fmt.Errorf("reading ODS codes: %w", err)
	}

	if len(codes) == 0 {
		log.Println("No ODS codes to sync")

		return nil
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(codes),
			progressbar.OptionSetDescription("Syncing ODS codes"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, code := range codes {
		metrics := SyncMetrics{}
		c.syncQuery(ctx, affiliationPath, AffiliationParams(code), &metrics)
		c.Metrics.SyncMetrics.Merge(&metrics)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return nil
}

// SyncYOrganizations runs the fixed special-case pass.
func (c *Client) SyncYOrganizations(ctx context.Context) {
	metrics := SyncMetrics{}
	c.syncQuery(ctx, organizationPath, YOrganizationParams(), &metrics)
	c.Metrics.SyncMetrics.Merge(&metrics)
}

// Update runs the full pipeline: both fetch passes, then the
// cross-link phase. Per-item failures never abort the run; only a
// missing codes workbook or an unreachable store do.
func (c *Client) Update(ctx context.Context) error {
	if c.options.SkipAffiliations {
		log.Println("Skipping affiliation pass")
	} else {
		log.Println("Fetching organizations data")

		if err := c.SyncAffiliations(ctx); err != nil {
			return err
		}
	}

	if c.options.SkipYOrganizations {
		log.Println("Skipping Y organizations pass")
	} else {
		log.Println("Fetching Y organizations data")
		c.SyncYOrganizations(ctx)
	}

	log.Printf(
		"Fetch phases completed - %d stored, %d skipped, %d failed from %d entries across %d queries (%d query errors)",
		c.Metrics.Stored,
		c.Metrics.Skipped,
		c.Metrics.StoreErrors,
		c.Metrics.Entries,
		c.Metrics.Queries,
		c.Metrics.QueryErrors,
	)

	if c.options.DryRun {
		log.Println("Dry run - skipping cross-link phase")

		return nil
	}

	linked, err := c.repo.LinkManagingOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("linking managing organizations: %w", err)
	}

	c.Metrics.Linked += linked

	log.Printf("Link phase completed - %d records patched", linked)

	return nil
}
