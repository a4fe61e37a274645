package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioGateway implements Gateway over any S3-compatible object store.
type MinioGateway struct {
	client *minio.Client
}

func NewMinioGateway(endpoint, accessKey, secretKey string, useSSL bool) (*MinioGateway, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioGateway{client: client}, nil
}

func (g *MinioGateway) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range g.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (g *MinioGateway) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := g.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	return err
}

func (g *MinioGateway) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	keys, err := g.List(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return g.DeleteObjects(ctx, bucket, keys)
}

func (g *MinioGateway) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var firstErr error
	for rerr := range g.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && firstErr == nil {
			firstErr = rerr.Err
		}
	}
	return firstErr
}

func (g *MinioGateway) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
