package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/tradepost/go-mediation/models"
)

// AwsConfigWithOverride points every AWS client built from the returned config at customEndpoint, e.g. a local
// DynamoDB or an SQS emulator.
func AwsConfigWithOverride(ctx context.Context, region, customEndpoint string) (aws.Config, error) {
	endpointResolver := aws.EndpointResolverWithOptionsFunc(func(service, _ string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			PartitionID:   "aws",
			URL:           customEndpoint,
			SigningRegion: region,
		}, nil
	})

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	return config.LoadDefaultConfig(
		httpCtx,
		config.WithRegion(region),
		config.WithEndpointResolverWithOptions(endpointResolver),
	)
}

func AwsConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	if len(endpoint) > 0 {
		return AwsConfigWithOverride(ctx, region, endpoint)
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	return config.LoadDefaultConfig(httpCtx, config.WithRegion(region))
}
