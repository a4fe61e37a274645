package storage

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// Location addresses one article-state's asset directory inside a bucket.
type Location struct {
	Bucket    string
	Directory string
}

// Prefix is the key prefix covering every object under the location.
func (l Location) Prefix() string {
	return l.Directory + "/"
}

func (l Location) Key(filename string) string {
	return l.Directory + "/" + filename
}

// CopyInstruction moves one object between buckets. Instructions are produced
// by the content rewriter and executed here; the filename never changes.
type CopyInstruction struct {
	SourceBucket         string
	SourceDirectory      string
	FileName             string
	DestinationDirectory string
}

func (ci CopyInstruction) SourceKey() string {
	return ci.SourceDirectory + "/" + ci.FileName
}

func (ci CopyInstruction) DestinationKey() string {
	return ci.DestinationDirectory + "/" + ci.FileName
}

// Gateway is the thin abstraction over bucket operations every migration
// goes through.
type Gateway interface {
	// List returns all object keys under prefix. No objects is not an error.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// Copy performs a server-side copy, possibly across buckets.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
	// DeletePrefix removes every object under prefix. Idempotent: deleting an
	// empty prefix succeeds.
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	// DeleteObjects removes the listed keys.
	DeleteObjects(ctx context.Context, bucket string, keys []string) error
	// Put uploads a new object.
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
}

// CopyBatch executes a copy plan into dstBucket. Individual failures are
// logged and counted, never fatal: the database row is the source of truth
// after migration, and one broken asset must not abort an entire publish.
func CopyBatch(ctx context.Context, gw Gateway, dstBucket string, plan []CopyInstruction, log *zap.Logger) int {
	failed := 0
	for _, ins := range plan {
		if err := gw.Copy(ctx, ins.SourceBucket, ins.SourceKey(), dstBucket, ins.DestinationKey()); err != nil {
			log.Warn("asset copy failed",
				zap.String("source_bucket", ins.SourceBucket),
				zap.String("source_key", ins.SourceKey()),
				zap.String("destination_bucket", dstBucket),
				zap.String("destination_key", ins.DestinationKey()),
				zap.Error(err),
			)
			failed++
		}
	}
	return failed
}
