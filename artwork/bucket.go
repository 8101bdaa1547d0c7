package artwork

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aouyang1/iotacanvas/util"
)

// Bucket is the remote artwork source.
type Bucket interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string, w io.WriterAt) error
}

type S3Bucket struct {
	client *s3.Client
	bucket string
}

// NewS3Bucket loads the shared aws configuration for profile. An empty
// profile uses the default credential chain.
func NewS3Bucket(ctx context.Context, profile, bucket string) (*S3Bucket, error) {
	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %w", err)
	}

	return &S3Bucket{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// List returns the keys of every supported artwork object in the bucket.
func (b *S3Bucket) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list s3 objects, %s, %w", b.bucket, err)
		}
		for object := range slices.Values(page.Contents) {
			name := aws.ToString(object.Key)
			// only top level objects map onto the flat artwork directory
			if strings.Contains(name, "/") || !util.IsArtwork(name) {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func (b *S3Bucket) Download(ctx context.Context, name string, w io.WriterAt) error {
	downloader := manager.NewDownloader(b.client)
	if _, err := downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("unable to download object from s3, %s, %w", name, err)
	}
	return nil
}
