package historical

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Archiver periodically gzips a FileSink's NDJSON file and uploads it
// to S3 under a timestamped key, then truncates the local file — the
// same gzip-and-rotate shape as a typical cold-storage archiver,
// pointed at S3 instead of a local directory.
type S3Archiver struct {
	client   *s3.Client
	bucket   string
	prefix   string
	path     string
	interval time.Duration
}

// NewS3Archiver constructs an S3Archiver that rolls path into
// bucket/prefix every interval.
func NewS3Archiver(client *s3.Client, bucket, prefix, path string, interval time.Duration) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, path: path, interval: interval}
}

// Run blocks, archiving on each tick until ctx is cancelled.
func (a *S3Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.cycle(ctx); err != nil {
				log.Printf("historical: s3 archive cycle: %v", err)
			}
		}
	}
}

func (a *S3Archiver) cycle(ctx context.Context) error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", a.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("gzip: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	key := fmt.Sprintf("%s/%s.jsonl.gz", a.prefix, time.Now().UTC().Format("20060102T150405"))
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	if err := os.Truncate(a.path, 0); err != nil {
		return fmt.Errorf("truncate %s: %w", a.path, err)
	}
	log.Printf("historical: archived %d bytes to s3://%s/%s", len(data), a.bucket, key)
	return nil
}
