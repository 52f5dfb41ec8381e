package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
	"timesheet.service/internal/config"
)

// NewAWSConfig loads the SDK config shared by the SQS and SES clients.
//
// With IS_LOCAL_DEV every service is sent to AWS_ENDPOINT (LocalStack) with
// static test credentials. Otherwise the default chain applies, which in the
// cluster resolves to the pod's IAM role.
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(appConfig.AWSRegion),
	}

	if appConfig.IsLocalDev {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")))
		if appConfig.AWSEndpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(appConfig.AWSEndpoint))
		}
		log.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Routing AWS calls to LocalStack")
	}

	return awsConfig.LoadDefaultConfig(ctx, opts...)
}
