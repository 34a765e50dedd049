// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"

	"veil/engine/internal/errors"
)

// AWSStore resolves credentials from AWS Secrets Manager.
type AWSStore struct {
	client *secretsmanager.SecretsManager
}

// NewAWSStore creates a Secrets Manager backed store.
// AWS credentials are resolved from the environment or IAM role; the region
// falls back to AWS_REGION when empty.
func NewAWSStore(region string) (*AWSStore, error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(errors.SecretRetrieval, "failed to create AWS session", err)
	}
	return &AWSStore{client: secretsmanager.New(sess)}, nil
}

// Retrieve fetches and decodes the named secret.
// The secret value may arrive as a string or as binary depending on how it
// was stored; both carry the same JSON payload.
func (s *AWSStore) Retrieve(ctx context.Context, name string) (Credentials, error) {
	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return Credentials{}, errors.Wrap(errors.SecretRetrieval, fmt.Sprintf("failed to fetch secret %q", name), err)
	}

	var data []byte
	if out.SecretString != nil {
		data = []byte(*out.SecretString)
	} else {
		data = out.SecretBinary
	}
	if len(data) == 0 {
		return Credentials{}, errors.New(errors.SecretRetrieval, fmt.Sprintf("secret %q is empty", name))
	}

	return decode(name, data)
}
