package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// AWSConfig configures the AWS Secrets Manager provider.
type AWSConfig struct {
	Region   string
	Endpoint string // LocalStack and similar
}

type awsProvider struct {
	client *secretsmanager.Client
}

func newAWSProvider(ctx context.Context, cfg AWSConfig) (*awsProvider, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("secrets: aws provider requires region")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to load aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &awsProvider{client: client}, nil
}

func (a *awsProvider) Name() ProviderType {
	return ProviderAWS
}

// Fetch reads a secret string. JSON objects become the payload map; anything
// else is stored under "value".
func (a *awsProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(ref.Path)}
	if ref.Version != "" {
		input.VersionId = aws.String(ref.Version)
	}

	result, err := a.client.GetSecretValue(ctx, input)
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: aws fetch failed for %s: %w", ref.Path, err)
	}

	payload := make(map[string]string)
	if str := aws.ToString(result.SecretString); str != "" {
		if err := json.Unmarshal([]byte(str), &payload); err != nil {
			payload = map[string]string{"value": str}
		}
	}

	var metadata Metadata
	metadata.Version = aws.ToString(result.VersionId)
	if result.CreatedDate != nil {
		metadata.CreatedAt = *result.CreatedDate
	}
	return Secret{Data: payload, Metadata: metadata}, nil
}
