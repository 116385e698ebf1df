package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LoadAWSConfig loads AWS config from the environment. When AWS_ENDPOINT (or a
// service specific AWS_S3_ENDPOINT / AWS_SNS_ENDPOINT) is set, every client
// built from the config targets that URL, which is how LocalStack is used in
// development. Static credentials from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY
// take precedence over the default chain.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	accessKey, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := firstNonEmpty(os.Getenv("AWS_S3_ENDPOINT"), os.Getenv("AWS_SNS_ENDPOINT"), os.Getenv("AWS_ENDPOINT"))
	if endpoint == "" {
		return cfg, nil
	}

	signingRegion := cfg.Region

	cfg.EndpointResolverWithOptions = sdkaws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (sdkaws.Endpoint, error) {
		sr := signingRegion
		if sr == "" {
			sr = region
		}
		return sdkaws.Endpoint{
			URL:               endpoint,
			SigningRegion:     sr,
			HostnameImmutable: true,
		}, nil
	})

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
