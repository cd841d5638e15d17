package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ryosukesatoh/note-digest/internal/config"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// objectPutter is the part of the S3 client the archive uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores every published digest as a JSON object. Objects are
// keyed by digest time: <prefix>/2006/01/02/150405.json.
type S3Archive struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Archive loads the default AWS configuration chain with the optional
// region and profile overrides.
func NewS3Archive(ctx context.Context, cfg config.S3Config) (*S3Archive, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Archive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *S3Archive) key(digest *summarizer.Digest) string {
	name := digest.Date.UTC().Format("2006/01/02/150405") + ".json"
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

func (a *S3Archive) Publish(ctx context.Context, digest *summarizer.Digest) error {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return fmt.Errorf("s3: failed to marshal digest: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(digest)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3: failed to put %s: %w", a.key(digest), err)
	}
	return nil
}
