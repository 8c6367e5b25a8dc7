package enum

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// S3Config configures S3 bucket enumeration.
type S3Config struct {
	Bucket    string // Bucket to enumerate (required)
	Prefix    string // Key prefix filter, "" for the whole bucket
	Region    string // AWS region; "" uses the SDK's default resolution chain
	RoleARN   string // Optional role to assume via STS before listing/getting objects
	Config           // Embedded base config (MaxFileSize, etc.)
}

// S3Enumerator enumerates objects from an S3 bucket via the AWS API.
type S3Enumerator struct {
	client *s3.Client
	config S3Config
}

// NewS3Enumerator creates an S3 enumerator, resolving credentials through the
// SDK's default chain (env vars, shared config, instance role) and, when
// RoleARN is set, assuming that role via STS first.
func NewS3Enumerator(ctx context.Context, cfg S3Config) (*S3Enumerator, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN)
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	return &S3Enumerator{
		client: s3.NewFromConfig(awsCfg),
		config: cfg,
	}, nil
}

// Enumerate yields every object (below MaxFileSize, when set) in the bucket.
func (e *S3Enumerator) Enumerate(ctx context.Context, callback func(content []byte, blobID types.BlobID, prov types.Provenance) error) error {
	paginator := s3.NewListObjectsV2Paginator(e.client, &s3.ListObjectsV2Input{
		Bucket: &e.config.Bucket,
		Prefix: strPtr(e.config.Prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing objects in %s: %w", e.config.Bucket, err)
		}

		for _, obj := range page.Contents {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if obj.Key == nil {
				continue
			}
			if e.config.MaxFileSize > 0 && obj.Size != nil && *obj.Size > e.config.MaxFileSize {
				continue
			}

			out, err := e.client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: &e.config.Bucket,
				Key:    obj.Key,
			})
			if err != nil {
				// Skip objects we can't read (permissions, glacier tier, etc.)
				continue
			}
			data, err := io.ReadAll(out.Body)
			out.Body.Close()
			if err != nil {
				continue
			}

			if isBinary(data) {
				continue
			}

			blobID := types.ComputeBlobID(data)
			prov := types.FileProvenance{
				FilePath: fmt.Sprintf("s3://%s/%s", e.config.Bucket, *obj.Key),
			}

			if err := callback(data, blobID, prov); err != nil {
				return err
			}
		}
	}

	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
