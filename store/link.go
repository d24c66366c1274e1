// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// organisationIndex scans the organisations table and maps identifier
// values to organisation ids.
func (r *dynamoLocationRepository) organisationIndex(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string)

	in := &dynamodb.ScanInput{
		TableName: aws.String(r.organisationsTable),
	}

	for {
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", r.organisationsTable, err)
		}

		var orgs []Organisation
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &orgs); err != nil {
			return nil, fmt.Errorf("unmarshaling organisations: %w", err)
		}

		for _, org := range orgs {
			if org.Identifier.Value != "" && org.ID != "" {
				index[org.Identifier.Value] = org.ID
			}
		}

		if out.LastEvaluatedKey == nil {
			return index, nil
		}

		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *dynamoLocationRepository) LinkManagingOrganizations(ctx context.Context) (int, error) {
	index, err := r.organisationIndex(ctx)
	if err != nil {
		return 0, err
	}

	var linked int

	in := &dynamodb.ScanInput{
		TableName: aws.String(r.locationsTable),
	}

	for {
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return linked, fmt.Errorf("scanning %s: %w", r.locationsTable, err)
		}

		var locations []Location
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &locations); err != nil {
			return linked, fmt.Errorf("unmarshaling locations: %w", err)
		}

		for i := range locations {
			loc := &locations[i]
			// Already linked records are left untouched.
			if loc.ManagingOrganization != "" || loc.LookupField == "" {
				continue
			}

			orgID, ok := index[loc.LookupField]
			if !ok {
				continue
			}

			if err := r.setManagingOrganization(ctx, loc.ID, orgID); err != nil {
				log.Printf("Link - failed to patch location %s: %v", loc.ID, err)

				continue
			}

			linked++
		}

		if out.LastEvaluatedKey == nil {
			return linked, nil
		}

		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *dynamoLocationRepository) setManagingOrganization(ctx context.Context, locationID, orgID string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(
			expression.Name("managingOrganization"),
			expression.Value(orgID),
		)).
		Build()
	if err != nil {
		return fmt.Errorf("building update expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.locationsTable),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: locationID}},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("updating location %q: %w", locationID, err)
	}

	return nil
}
