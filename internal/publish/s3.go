// Package publish uploads a rendered file to S3.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/melody-ding/go-vidcompose/internal/config"
)

// Object is what a Publisher uploads alongside the file contents.
type Object struct {
	Path     string
	Metadata map[string]string
}

// Publisher uploads rendered files to a bucket.
type Publisher struct {
	bucket   string
	prefix   string
	uploader s3manageriface.UploaderAPI
}

// New builds a Publisher from the publish config using the default AWS
// credential chain, which includes variables loaded from a .env file.
func New(cfg config.Publish) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("publish: bucket is required")
	}
	awsCfg := aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.PathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: aws session: %w", err)
	}
	return NewWithUploader(cfg, s3manager.NewUploader(sess)), nil
}

// NewWithUploader builds a Publisher around an existing uploader.
func NewWithUploader(cfg config.Publish, uploader s3manageriface.UploaderAPI) *Publisher {
	return &Publisher{bucket: cfg.Bucket, prefix: cfg.Prefix, uploader: uploader}
}

// Key returns the object key for a local file.
func (p *Publisher) Key(localPath string) string {
	name := filepath.Base(localPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Upload sends obj to the bucket and returns the object location.
func (p *Publisher) Upload(ctx context.Context, obj Object) (string, error) {
	f, err := os.Open(obj.Path)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	defer f.Close()

	input := &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(obj.Path)),
		Body:        f,
		ContentType: aws.String("video/mp4"),
	}
	if len(obj.Metadata) > 0 {
		input.Metadata = aws.StringMap(obj.Metadata)
	}

	out, err := p.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("publish s3://%s/%s: %w", p.bucket, p.Key(obj.Path), err)
	}
	return out.Location, nil
}
