// Package archive stores a copy of every processed sync batch in an
// S3-compatible bucket for later audit.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/possync/internal/server/config"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/google/uuid"
)

// Batch is one sync request together with the verdicts returned for it.
type Batch struct {
	EditionID  string             `json:"editionId"`
	ReceivedAt time.Time          `json:"receivedAt"`
	Items      []models.SyncItem  `json:"items"`
	Summary    models.SyncSummary `json:"summary"`
}

type Archiver interface {
	Archive(ctx context.Context, b *Batch) error
}

// Noop discards batches. It is used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, *Batch) error { return nil }

// PutObjectAPI is the part of *s3.Client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client PutObjectAPI
	bucket string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Archiver builds an archiver for cfg.ArchiveBucket using static
// credentials and path-style addressing, which MinIO requires.
func NewS3Archiver(ctx context.Context, cfg *sc.Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})
	return NewS3ArchiverWithClient(client, cfg.ArchiveBucket), nil
}

func NewS3ArchiverWithClient(client PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

// Key returns the object key of a batch: sync/<edition>/<yyyy>/<mm>/<dd>/<id>.json.
func Key(b *Batch) string {
	t := b.ReceivedAt.UTC()
	return fmt.Sprintf("sync/%s/%04d/%02d/%02d/%d-%s.json",
		b.EditionID, t.Year(), t.Month(), t.Day(), t.UnixNano(), uuid.NewString())
}

func (a *S3Archiver) Archive(ctx context.Context, b *Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(b)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
