package chart

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/config"
)

// PutObjectAPI is the part of the S3 client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 renders charts to PNG and uploads them to s3://Bucket/Prefix/<slug>.png.
type S3 struct {
	client PutObjectAPI
	Bucket string
	Prefix string
	Width  int
	Height int
	log    logrus.FieldLogger
}

// NewS3 loads the default AWS configuration (environment, shared config,
// instance role) and returns an S3 sink for cfg.S3.
func NewS3(ctx context.Context, cfg config.ChartsConfig, log logrus.FieldLogger) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(awsCfg), cfg, log), nil
}

// NewS3WithClient returns an S3 sink using an existing client.
func NewS3WithClient(client PutObjectAPI, cfg config.ChartsConfig, log logrus.FieldLogger) *S3 {
	return &S3{
		client: client,
		Bucket: cfg.S3.Bucket,
		Prefix: cfg.S3.Prefix,
		Width:  cfg.Width,
		Height: cfg.Height,
		log:    sinkLogger(log, "s3"),
	}
}

// Key returns the object key a chart is uploaded under.
func (s *S3) Key(c *Chart) string {
	return path.Join(s.Prefix, c.Slug()+".png")
}

// Render implements Sink.
func (s *S3) Render(ctx context.Context, c *Chart) error {
	if c == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, c, s.Width, s.Height, s.log); err != nil {
		return err
	}

	key := s.Key(c)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("upload chart to s3://%s/%s: %w", s.Bucket, key, err)
	}
	s.log.WithField("key", key).Info("chart uploaded")
	return nil
}
