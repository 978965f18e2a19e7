// Package s3client is the object-store origin client (C4), grounded on
// the teacher's internal/imagesources/awss3.go but adapted to the
// Outcome contract in package origin: a service-level "no such key" maps
// to origin.NotFound, every other error to origin.Error.
package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/livesense-inc/fanlin-go/internal/locator"
	"github.com/livesense-inc/fanlin-go/internal/origin"
)

// Config mirrors the config.file client.s3 block.
type Config struct {
	Region          string
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
}

// Client is the S3/object-store origin client.
type Client struct {
	sdk *s3.Client
}

// New constructs a Client once at startup. If EndpointURL is set,
// credentials are required and path-style addressing is forced (for
// S3-compatible services like MinIO running behind a custom endpoint).
func New(ctx context.Context, cfg Config) (*Client, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	optFns = append(optFns, awsconfig.WithRegion(cfg.Region))

	usePathStyle := false
	if cfg.EndpointURL != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, fmt.Errorf("s3client: endpoint_url set but access key id/secret missing")
		}
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
		usePathStyle = true
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3client: failed to load AWS config: %w", err)
	}

	sdk := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		o.UsePathStyle = usePathStyle
	})

	return &Client{sdk: sdk}, nil
}

// Fetch implements origin.Client. locator must be a *locator.S3.
func (c *Client) Fetch(ctx context.Context, loc any) origin.Outcome {
	s3loc, ok := loc.(*locator.S3)
	if !ok {
		return origin.Error(fmt.Errorf("s3client: locator is not *locator.S3 (%T)", loc))
	}

	out, err := c.sdk.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3loc.Bucket),
		Key:    aws.String(s3loc.Key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return origin.NotFound()
		}
		return origin.Error(fmt.Errorf("s3client: get object: %w", err))
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if out.ContentLength != nil {
		buf.Grow(int(*out.ContentLength))
	}
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return origin.Error(fmt.Errorf("s3client: read body: %w", err))
	}
	return origin.Bytes(buf.Bytes())
}
