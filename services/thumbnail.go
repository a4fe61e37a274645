package services

import (
	"context"

	"go.uber.org/zap"

	"pressroom-cms/models"
	"pressroom-cms/storage"
)

// ThumbnailMigrator copies the convention-named thumbnail objects between
// article directories. Thumbnails are addressed by convention plus the
// thumbnail_crop metadata, never discovered by scanning content, so they are
// migrated separately from the rewriter's copy plan.
type ThumbnailMigrator struct {
	gateway storage.Gateway
	log     *zap.Logger
}

func NewThumbnailMigrator(gateway storage.Gateway, log *zap.Logger) *ThumbnailMigrator {
	return &ThumbnailMigrator{gateway: gateway, log: log}
}

// Migrate copies thumbnail.png (and the user-uploaded override when the crop
// says one exists) from src to dst. A nil crop means no thumbnail: no-op.
// Failures are logged, never fatal; an article without a thumbnail is valid.
func (m *ThumbnailMigrator) Migrate(ctx context.Context, src, dst storage.Location, crop *models.ThumbnailCrop) {
	if crop == nil {
		return
	}

	names := []string{models.ThumbnailFileName}
	if crop.UploadedCustomThumbnail {
		names = append(names, models.ThumbnailUploadedFileName)
	}

	for _, name := range names {
		if err := m.gateway.Copy(ctx, src.Bucket, src.Key(name), dst.Bucket, dst.Key(name)); err != nil {
			m.log.Warn("thumbnail copy failed",
				zap.String("source", src.Bucket+"/"+src.Key(name)),
				zap.String("destination", dst.Bucket+"/"+dst.Key(name)),
				zap.Error(err),
			)
		}
	}
}
