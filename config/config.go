// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the runtime parameters of the sync job from
// AWS SSM Parameter Store.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter names as provisioned in the parameter store.
const (
	ParamAPIDomain    = "/data/api/lambda/ods/domain"
	ParamClientID     = "/data/api/lambda/client_id"
	ParamClientSecret = "/data/api/lambda/client_secret"
)

// Environment variables that override the parameter store, for local runs.
const (
	EnvAPIDomain    = "ODS_API_DOMAIN"
	EnvClientID     = "ODS_CLIENT_ID"
	EnvClientSecret = "ODS_CLIENT_SECRET"
)

var errEmptyParameter = errors.New("parameter is empty")

// ParameterSource resolves a named configuration parameter.
type ParameterSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// ssmClient is the subset of the SSM client used by SSMParameterSource.
type ssmClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMParameterSource reads decrypted parameters from SSM Parameter Store.
type SSMParameterSource struct {
	client ssmClient
}

// NewSSMParameterSource creates a parameter source backed by the given SSM client.
func NewSSMParameterSource(client *ssm.Client) *SSMParameterSource {
	return &SSMParameterSource{client: client}
}

func newSSMParameterSource(client ssmClient) *SSMParameterSource {
	return &SSMParameterSource{client: client}
}

// Get implements ParameterSource.
func (s *SSMParameterSource) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("getting parameter %q: %w", name, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return "", fmt.Errorf("%w: %q", errEmptyParameter, name)
	}

	return *out.Parameter.Value, nil
}

// Credentials groups everything the job needs to talk to the directory API.
type Credentials struct {
	APIDomain    string
	ClientID     string
	ClientSecret string
}

// Resolve reads the directory API parameters. Environment variables win
// over the parameter store so the job can run without AWS access.
func Resolve(ctx context.Context, src ParameterSource) (*Credentials, error) {
	domain, err := resolveOne(ctx, src, EnvAPIDomain, ParamAPIDomain)
	if err != nil {
		return nil, err
	}

	clientID, err := resolveOne(ctx, src, EnvClientID, ParamClientID)
	if err != nil {
		return nil, err
	}

	clientSecret, err := resolveOne(ctx, src, EnvClientSecret, ParamClientSecret)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		APIDomain:    domain,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

func resolveOne(ctx context.Context, src ParameterSource, envName, paramName string) (string, error) {
	if v := os.Getenv(envName); v != "" {
		return v, nil
	}

	return src.Get(ctx, paramName)
}
