// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the S3-compatible object storage client the site
// is deployed to. It wraps the AWS SDK v2 and is configured for path-style
// access so it works with MinIO, CEPH and Hetzner as well as AWS.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Client uploads site files to a single bucket.
type Client struct {
	s3       *s3.Client
	bucket   string
	endpoint string
	public   bool
}

// Options configures a Client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Public uploads objects with the public-read ACL.
	Public bool
}

// New creates an S3 storage client with static credentials and path-style
// addressing.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("storage: endpoint and bucket are required")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint := strings.TrimRight(opts.Endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:       s3Client,
		bucket:   opts.Bucket,
		endpoint: endpoint,
		public:   opts.Public,
	}, nil
}

// Upload stores an object under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if c.public {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// FileURL returns the path-style URL of an object.
func (c *Client) FileURL(key string) string {
	return c.endpoint + "/" + c.bucket + "/" + key
}
