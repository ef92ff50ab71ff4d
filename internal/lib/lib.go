// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It holds the AWS SDK configuration shared by the DynamoDB health checks and
// the Lambda backend client.
package lib

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/deppfellow/fleet-gateway/internal/config"
)

// LoadAWSConfig resolves SDK configuration from the default chain
// (environment, shared files, instance role), applying the region and the
// endpoint override from cfg when set.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	// DynamoDB Local / LocalStack
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return awsCfg, nil
}
