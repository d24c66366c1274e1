// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/odsdir/odssync/config"
	"github.com/odsdir/odssync/ods"
	"github.com/odsdir/odssync/store"
)

var syncOptions = &ods.ClientOptions{}

var storeFlags = struct {
	region             string
	locationsTable     string
	organisationsTable string
	endpoint           string
}{}

func newDynamoDBClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if storeFlags.endpoint != "" {
			o.BaseEndpoint = aws.String(storeFlags.endpoint)
		}
	})
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Loads directory organizations into the locations table",
	Long: `
sync resolves the directory credentials from SSM Parameter Store, reads one
affiliation bundle per ODS code in the workbook plus the fixed special-case
organization query, writes the normalized records to the locations table and
patches managingOrganization from the organisations table.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(storeFlags.region))
		if err != nil {
			return fmt.Errorf("loading AWS configuration: %w", err)
		}

		creds, err := config.Resolve(ctx, config.NewSSMParameterSource(ssm.NewFromConfig(awsCfg)))
		if err != nil {
			return fmt.Errorf("resolving directory parameters: %w", err)
		}

		repo := store.NewDynamoDBLocationRepository(
			newDynamoDBClient(awsCfg),
			storeFlags.locationsTable,
			storeFlags.organisationsTable,
		)

		syncOptions.UserAgent = fmt.Sprintf("odssync/%s (+https://github.com/odsdir/odssync)", Version)

		source := ods.NewTokenSource(ctx, creds.APIDomain, creds.ClientID, creds.ClientSecret)
		c := ods.NewClient(syncOptions, creds.APIDomain, source, repo)

		err = c.Update(ctx)

		log.Printf(
			"Run totals - %d stored, %d skipped, %d store errors, %d query errors, %d linked",
			c.Metrics.Stored,
			c.Metrics.Skipped,
			c.Metrics.StoreErrors,
			c.Metrics.QueryErrors,
			c.Metrics.Linked,
		)

		return err
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	rootCmd.PersistentFlags().StringVar(
		&storeFlags.region,
		"region",
		"eu-west-2",
		"AWS region for SSM and DynamoDB",
	)
	rootCmd.PersistentFlags().StringVar(
		&storeFlags.locationsTable,
		"locations-table",
		"locations",
		"DynamoDB table holding location records",
	)
	rootCmd.PersistentFlags().StringVar(
		&storeFlags.organisationsTable,
		"organisations-table",
		"organisations",
		"DynamoDB table holding organisation records",
	)
	rootCmd.PersistentFlags().StringVar(
		&storeFlags.endpoint,
		"dynamodb-endpoint",
		"",
		"Override the DynamoDB endpoint (e.g. a local instance)",
	)
	rootCmd.PersistentFlags().StringVar(
		&syncOptions.CodesPath,
		"codes",
		"ODS_Codes.xlsx",
		"Workbook listing the ODS codes to sync",
	)

	syncCmd.PersistentFlags().BoolVar(
		&syncOptions.SkipAffiliations,
		"skip-affiliations",
		false,
		"Skips the code-driven affiliation pass",
	)
	syncCmd.PersistentFlags().BoolVar(
		&syncOptions.SkipYOrganizations,
		"skip-y-organizations",
		false,
		"Skips the fixed special-case organization pass",
	)
	syncCmd.PersistentFlags().BoolVar(
		&syncOptions.DryRun,
		"dry-run",
		false,
		"Don't persist any change",
	)
	syncCmd.PersistentFlags().BoolVar(
		&syncOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	syncCmd.PersistentFlags().BoolVar(
		&syncOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
