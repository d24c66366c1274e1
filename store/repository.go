// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrDuplicateID is returned when a record with the same synthesized id
// already exists. The scan-and-filter dedup on lookup_field is not
// atomic; the conditional put is the backstop.
var ErrDuplicateID = errors.New("location id already exists")

// DynamoDBAPI is the subset of the DynamoDB client used by the repository.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// LocationRepository defines the persistence operations of the sync job.
type LocationRepository interface {
	// Exists reports whether a location with the given lookup_field is
	// already stored.
	Exists(ctx context.Context, lookupField string) (bool, error)
	// Save inserts a new location record. It fails with ErrDuplicateID
	// if a record with the same id is already present.
	Save(ctx context.Context, loc *Location) error
	// LinkManagingOrganizations patches managingOrganization on every
	// unlinked location whose lookup_field matches an organisations
	// identifier value. Returns the number of records patched.
	LinkManagingOrganizations(ctx context.Context) (int, error)
}

type dynamoLocationRepository struct {
	client             DynamoDBAPI
	locationsTable     string
	organisationsTable string
}

// NewDynamoDBLocationRepository creates a repository over the two
// DynamoDB tables. Both tables are keyed by id; lookups by any other
// attribute go through scans, there are no secondary indexes.
func NewDynamoDBLocationRepository(client DynamoDBAPI, locationsTable, organisationsTable string) LocationRepository {
	return &dynamoLocationRepository{
		client:             client,
		locationsTable:     locationsTable,
		organisationsTable: organisationsTable,
	}
}

func (r *dynamoLocationRepository) Exists(ctx context.Context, lookupField string) (bool, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("lookup_field").Equal(expression.Value(lookupField))).
		Build()
	if err != nil {
		return false, fmt.Errorf("building filter expression: %w", err)
	}

	in := &dynamodb.ScanInput{
		TableName:                 aws.String(r.locationsTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	}

	for {
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return false, fmt.Errorf("scanning %s for %q: %w", r.locationsTable, lookupField, err)
		}

		if out.Count > 0 {
			return true, nil
		}

		if out.LastEvaluatedKey == nil {
			return false, nil
		}

		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *dynamoLocationRepository) Save(ctx context.Context, loc *Location) error {
	item, err := attributevalue.MarshalMap(loc)
	if err != nil {
		return fmt.Errorf("marshaling location %q: %w", loc.LookupField, err)
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("building condition expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.locationsTable),
		Item:                      item,
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %q", ErrDuplicateID, loc.ID)
		}

		return fmt.Errorf("putting location %q: %w", loc.LookupField, err)
	}

	return nil
}
