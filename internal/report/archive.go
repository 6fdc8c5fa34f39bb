package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"repair-backend/internal/config"
	"repair-backend/internal/logger"
	"repair-backend/internal/timeutil"
)

// ObjectPutter is the part of *s3.Client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads generated reports to an S3 compatible bucket (R2, MinIO, S3).
type Archiver struct {
	client ObjectPutter
	bucket string
}

func NewArchiver(client ObjectPutter, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// NewArchiverFromConfig builds an S3 client from the reports section.
func NewArchiverFromConfig(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Reports.AccessKey,
			cfg.Reports.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Reports.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure report storage: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Reports.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Reports.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewArchiver(client, cfg.Reports.Bucket), nil
}

// Key returns the object key a report generated at t is stored under.
func Key(f Format, t time.Time) string {
	t = timeutil.ToZone(t)
	return fmt.Sprintf("alarms/%s/%s", t.Format("2006/01/02"), f.Filename(t))
}

// Archive uploads data and returns its object key.
func (a *Archiver) Archive(ctx context.Context, f Format, data []byte, generatedAt time.Time) (string, error) {
	key := Key(f, generatedAt)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(f.ContentType()),
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", key, err)
	}

	logger.InfoKV(ctx, "Report archived", "bucket", a.bucket, "key", key, "bytes", len(data))
	return key, nil
}
