package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "bds_scrooper/config"
)

// SnapshotArchiver uploads rendered pages to S3-compatible storage so that
// selector breakage can be diagnosed after the fact.
type SnapshotArchiver struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

func NewSnapshotArchiver(ctx context.Context, cfg appconfig.S3Config) (*SnapshotArchiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket not configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &SnapshotArchiver{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// ArchivePage stores markup under snapshots/<platform>/<date>/<id>.html and
// returns the object key.
func (a *SnapshotArchiver) ArchivePage(ctx context.Context, platform, pageURL, markup string) (string, error) {
	key := SnapshotKey(platform, a.now(), uuid.NewString())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(markup),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata:    map[string]string{"source-url": pageURL},
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func SnapshotKey(platform string, at time.Time, id string) string {
	return fmt.Sprintf("snapshots/%s/%s/%s.html", platform, at.UTC().Format("2006-01-02"), id)
}
