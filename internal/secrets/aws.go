package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager reads the key from AWS Secrets Manager. The secret string
// is either the key itself or a JSON object; JSONKey selects the field in
// the latter case.
type SecretsManager struct {
	Client   SecretsManagerAPI
	SecretID string
	JSONKey  string
}

// NewSecretsManager builds a SecretsManager source with the default AWS
// credential chain. An empty region defers to the environment.
func NewSecretsManager(ctx context.Context, region, secretID, jsonKey string) (*SecretsManager, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SecretsManager{
		Client:   secretsmanager.NewFromConfig(cfg),
		SecretID: secretID,
		JSONKey:  jsonKey,
	}, nil
}

func (s *SecretsManager) APIKey(ctx context.Context) (string, error) {
	if s.SecretID == "" {
		return "", fmt.Errorf("%w: no secret id configured", ErrNotFound)
	}

	out, err := s.Client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}

	raw := strings.TrimSpace(aws.ToString(out.SecretString))
	if raw == "" {
		return "", fmt.Errorf("%w: secret %s has no string value", ErrNotFound, s.SecretID)
	}

	if s.JSONKey == "" {
		return raw, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("decode secret %s: %w", s.SecretID, err)
	}
	key := strings.TrimSpace(fields[s.JSONKey])
	if key == "" {
		return "", fmt.Errorf("%w: field %q missing in secret %s", ErrNotFound, s.JSONKey, s.SecretID)
	}
	return key, nil
}
