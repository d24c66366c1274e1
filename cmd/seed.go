// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spf13/cobra"

	"github.com/odsdir/odssync/store"
)

var seedFile string

// seedCmd prepares a local DynamoDB instance: it creates the locations and
// organisations tables and loads a small organisations fixture so the
// cross-link phase has something to match against.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Creates the DynamoDB tables and loads an organisations fixture",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if storeFlags.endpoint == "" {
			return errors.New("seed requires --dynamodb-endpoint; refusing to touch a remote table")
		}

		ctx := cmd.Context()

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(storeFlags.region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("local", "local", ""),
			),
		)
		if err != nil {
			return fmt.Errorf("loading AWS configuration: %w", err)
		}
		client := newDynamoDBClient(awsCfg)

		for _, table := range []string{storeFlags.locationsTable, storeFlags.organisationsTable} {
			if err := createTable(ctx, client, table); err != nil {
				return err
			}
		}

		return seedOrganisations(ctx, client)
	},
}

func createTable(ctx context.Context, client *dynamodb.Client, name string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{{
			AttributeName: aws.String("id"),
			AttributeType: types.ScalarAttributeTypeS,
		}},
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String("id"),
			KeyType:       types.KeyTypeHash,
		}},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			log.Printf("Table %s already exists", name)
			return nil
		}
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	}, 30*time.Second); err != nil {
		return fmt.Errorf("waiting for table %s: %w", name, err)
	}
	return nil
}

func seedOrganisations(ctx context.Context, client *dynamodb.Client) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("reading organisations fixture: %w", err)
	}

	var orgs []store.Organisation
	if err := json.Unmarshal(data, &orgs); err != nil {
		return fmt.Errorf("parsing organisations fixture %s: %w", seedFile, err)
	}

	for _, org := range orgs {
		item, err := attributevalue.MarshalMap(org)
		if err != nil {
			return fmt.Errorf("marshaling organisation %s: %w", org.ID, err)
		}
		if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(storeFlags.organisationsTable),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("storing organisation %s: %w", org.ID, err)
		}
	}

	log.Printf("Seeded %d organisations into %s", len(orgs), storeFlags.organisationsTable)
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(
		&seedFile,
		"fixture",
		"cmd/testdata/seed.json",
		"Organisations fixture to load",
	)
}
