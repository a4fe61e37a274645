package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressroom-cms/config"
	"pressroom-cms/models"
	"pressroom-cms/repositories"
	"pressroom-cms/search"
	"pressroom-cms/storage"
)

var (
	ErrDraftNotFound     = errors.New("draft not found")
	ErrPublishedNotFound = errors.New("published article not found")
)

// LifecycleService sequences the publication state machine: read current
// state, compute target content and URLs, copy objects into the destination
// bucket, commit the row mutation, synchronize the search index, delete the
// now-orphaned source objects. Object-store calls are never part of the
// database transaction; copies strictly precede the commit and source
// deletions strictly follow it.
type LifecycleService interface {
	CreateDraft(ctx context.Context, req models.CreateDraftRequest) (*models.Draft, error)
	SaveDraft(ctx context.Context, draftID uint, req models.SaveDraftRequest) (*models.Draft, error)
	Publish(ctx context.Context, req models.PublishRequest) (*models.Published, error)
	Unpublish(ctx context.Context, publishedID uint) (*models.Draft, error)
	DeleteDraft(ctx context.Context, draftID uint) (*models.Published, error)
	DeleteBoth(ctx context.Context, draftID uint) error
	DeleteCustomThumbnail(ctx context.Context, draftID uint) error
	GetDraft(ctx context.Context, draftID uint) (*models.Draft, error)
	GetPublished(ctx context.Context, publishedID uint) (*models.Published, error)
	ListDrafts(ctx context.Context, params models.ListParams) ([]models.Draft, int64, error)
	ListPublished(ctx context.Context, params models.ListParams) ([]models.Published, int64, error)
}

type lifecycleService struct {
	db        *gorm.DB
	drafts    repositories.DraftRepository
	published repositories.PublishedRepository
	rewriter  *AssetRewriter
	thumbs    *ThumbnailMigrator
	gateway   storage.Gateway
	indexer   search.Indexer
	cache     *AuthorCache
	buckets   config.StorageConfig
	log       *zap.Logger
}

func NewLifecycleService(
	db *gorm.DB,
	drafts repositories.DraftRepository,
	published repositories.PublishedRepository,
	rewriter *AssetRewriter,
	thumbs *ThumbnailMigrator,
	gateway storage.Gateway,
	indexer search.Indexer,
	cache *AuthorCache,
	buckets config.StorageConfig,
	log *zap.Logger,
) LifecycleService {
	return &lifecycleService{
		db:        db,
		drafts:    drafts,
		published: published,
		rewriter:  rewriter,
		thumbs:    thumbs,
		gateway:   gateway,
		indexer:   indexer,
		cache:     cache,
		buckets:   buckets,
		log:       log,
	}
}

// CreateDraft starts a fresh draft from a title, or forks the content of a
// published article. Forking is idempotent: a second call with the same
// published id returns the already-linked draft.
func (s *lifecycleService) CreateDraft(ctx context.Context, req models.CreateDraftRequest) (*models.Draft, error) {
	if req.PublishedID != nil {
		return s.forkDraft(ctx, *req.PublishedID)
	}

	draft := &models.Draft{
		Title:   req.Title,
		Content: models.Blocks{models.HeaderBlock(req.Title)},
	}
	if err := s.drafts.Create(draft); err != nil {
		return nil, err
	}
	if err := s.drafts.ReplaceAuthors(draft.ID, req.AuthorIDs); err != nil {
		return nil, err
	}
	return s.draftWithAuthors(ctx, draft)
}

func (s *lifecycleService) forkDraft(ctx context.Context, publishedID uint) (*models.Draft, error) {
	if existing, err := s.drafts.GetByPublishedID(publishedID); err == nil {
		return s.draftWithAuthors(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record, err := s.published.GetByID(publishedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublishedNotFound
		}
		return nil, err
	}

	// Draft asset URLs are keyed by the draft's id, so the row is inserted
	// first to obtain it, then the rewritten content lands in a second write.
	draft := &models.Draft{
		Title:         record.Title,
		PublishedID:   &record.ID,
		ThumbnailCrop: record.ThumbnailCrop,
	}
	if err := s.drafts.Create(draft); err != nil {
		return nil, err
	}

	dest := storage.Location{Bucket: s.buckets.DraftBucket, Directory: draft.Directory()}
	rewritten, plan, err := s.rewriter.Rewrite(record.Content, dest)
	if err != nil {
		if derr := s.drafts.Delete(draft.ID); derr != nil {
			s.log.Warn("failed to remove draft after aborted fork", zap.Uint("draft_id", draft.ID), zap.Error(derr))
		}
		return nil, err
	}

	src := storage.Location{Bucket: s.buckets.PublishedBucket, Directory: record.Directory()}
	// Fork never deletes source objects: the published article stays live.
	failed := s.migrateAssets(ctx, plan, dest, src, record.ThumbnailCrop)
	if failed > 0 {
		s.log.Warn("draft fork finished with asset copy failures",
			zap.Uint("draft_id", draft.ID), zap.Int("failed", failed))
	}

	draft.Content = rewritten
	if err := s.drafts.Update(draft); err != nil {
		return nil, err
	}

	authorIDs, err := s.published.GetAuthorIDs(record.ID)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.ReplaceAuthors(draft.ID, authorIDs); err != nil {
		return nil, err
	}

	return s.draftWithAuthors(ctx, draft)
}

// SaveDraft updates a draft's row. Content already lives in the draft's own
// directory, so no objects move; references outside it are rejected.
func (s *lifecycleService) SaveDraft(ctx context.Context, draftID uint, req models.SaveDraftRequest) (*models.Draft, error) {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	own := storage.Location{Bucket: s.buckets.DraftBucket, Directory: draft.Directory()}
	if err := s.rewriter.ValidateOwnership(req.Content, own); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		draft.Title = req.Title
		draft.Content = req.Content
		draft.ThumbnailCrop = req.ThumbnailCrop
		if err := s.drafts.WithTx(tx).Update(draft); err != nil {
			return err
		}
		return s.drafts.WithTx(tx).ReplaceAuthors(draft.ID, req.AuthorIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.draftWithAuthors(ctx, draft)
}

// Publish moves an article into the published bucket under a slug+date
// directory, commits the row mutation, consumes the source draft, and pushes
// the result to the search index.
func (s *lifecycleService) Publish(ctx context.Context, req models.PublishRequest) (*models.Published, error) {
	var draft *models.Draft
	if req.DraftID != nil {
		var err error
		draft, err = s.drafts.GetByID(*req.DraftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDraftNotFound
			}
			return nil, err
		}
	}

	var existing *models.Published
	if draft != nil && draft.PublishedID != nil {
		var err error
		existing, err = s.published.GetByID(*draft.PublishedID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	content := req.Content
	if len(content) == 0 && draft != nil {
		content = draft.Content
	}
	crop := req.ThumbnailCrop
	if crop == nil && draft != nil {
		crop = draft.ThumbnailCrop
	}

	publishedAt := time.Now()
	if existing != nil {
		publishedAt = existing.CreatedAt
	}
	newURL := slug.Make(req.Title)
	directory := fmt.Sprintf("%s-%s", newURL, publishedAt.Format("02-01-2006"))

	// The old assets are entirely superseded; when the slug is unchanged the
	// destination directory is the same one, so it is cleared before staging
	// the new copy set or stale duplicates would survive next to it.
	if existing != nil {
		if err := s.gateway.DeletePrefix(ctx, s.buckets.PublishedBucket, existing.Directory()+"/"); err != nil {
			s.log.Warn("failed to clear previous published directory",
				zap.String("directory", existing.Directory()), zap.Error(err))
		}
	}

	dest := storage.Location{Bucket: s.buckets.PublishedBucket, Directory: directory}
	rewritten, plan, err := s.rewriter.Rewrite(content, dest)
	if err != nil {
		return nil, err
	}

	var src storage.Location
	var cropToMigrate *models.ThumbnailCrop
	if draft != nil {
		src = storage.Location{Bucket: s.buckets.DraftBucket, Directory: draft.Directory()}
		cropToMigrate = crop
	}
	failed := s.migrateAssets(ctx, plan, dest, src, cropToMigrate)
	if failed > 0 {
		s.log.Warn("publish finished with asset copy failures",
			zap.String("directory", directory), zap.Int("failed", failed))
	}

	var record *models.Published
	err = s.db.Transaction(func(tx *gorm.DB) error {
		pub := s.published.WithTx(tx)
		if existing != nil {
			existing.Title = req.Title
			existing.URL = newURL
			existing.Content = rewritten
			existing.ThumbnailCrop = crop
			if err := pub.Update(existing); err != nil {
				return err
			}
			record = existing
		} else {
			record = &models.Published{
				Title:         req.Title,
				URL:           newURL,
				Content:       rewritten,
				ThumbnailCrop: crop,
				CreatedAt:     publishedAt,
			}
			if err := pub.Create(record); err != nil {
				return err
			}
		}
		if err := pub.ReplaceAuthors(record.ID, req.AuthorIDs); err != nil {
			return err
		}
		if draft != nil {
			return s.drafts.WithTx(tx).Delete(draft.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.publishedWithAuthors(ctx, record)
	if err != nil {
		return nil, err
	}
	s.upsertIndex(result)
	s.cache.Invalidate(ctx, req.AuthorIDs...)

	// The draft's objects are orphans only now that the commit succeeded.
	if draft != nil {
		if err := s.gateway.DeletePrefix(ctx, s.buckets.DraftBucket, draft.Directory()+"/"); err != nil {
			s.log.Warn("failed to delete consumed draft directory",
				zap.String("directory", draft.Directory()), zap.Error(err))
		}
	}

	return result, nil
}

// Unpublish is the inverse of Publish: the article's content moves back into
// a draft (created on the fly when none is linked) and the published record
// disappears. The search entry is removed first so a dead article stops being
// discoverable even if a later step fails.
func (s *lifecycleService) Unpublish(ctx context.Context, publishedID uint) (*models.Draft, error) {
	record, err := s.published.GetByID(publishedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublishedNotFound
		}
		return nil, err
	}

	if err := s.indexer.Delete(search.ObjectID(record.ID)); err != nil {
		s.log.Warn("search index delete failed", zap.Uint("published_id", record.ID), zap.Error(err))
	}

	draft, err := s.drafts.GetByPublishedID(record.ID)
	created := false
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Same insert-then-rewrite ordering as forking: the directory is
		// keyed by an id that does not exist before the insert.
		draft = &models.Draft{Title: record.Title, PublishedID: &record.ID}
		if err := s.drafts.Create(draft); err != nil {
			return nil, err
		}
		created = true
	}

	dest := storage.Location{Bucket: s.buckets.DraftBucket, Directory: draft.Directory()}
	rewritten, plan, err := s.rewriter.Rewrite(record.Content, dest)
	if err != nil {
		if created {
			if derr := s.drafts.Delete(draft.ID); derr != nil {
				s.log.Warn("failed to remove draft after aborted unpublish", zap.Uint("draft_id", draft.ID), zap.Error(derr))
			}
		}
		return nil, err
	}

	src := storage.Location{Bucket: s.buckets.PublishedBucket, Directory: record.Directory()}
	failed := s.migrateAssets(ctx, plan, dest, src, record.ThumbnailCrop)
	if failed > 0 {
		s.log.Warn("unpublish finished with asset copy failures",
			zap.Uint("published_id", record.ID), zap.Int("failed", failed))
	}

	authorIDs, err := s.published.GetAuthorIDs(record.ID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		draft.Title = record.Title
		draft.Content = rewritten
		draft.ThumbnailCrop = record.ThumbnailCrop
		draft.PublishedID = nil
		if err := s.drafts.WithTx(tx).Update(draft); err != nil {
			return err
		}
		if err := s.drafts.WithTx(tx).ReplaceAuthors(draft.ID, authorIDs); err != nil {
			return err
		}
		return s.published.WithTx(tx).Delete(record.ID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, authorIDs...)

	if err := s.gateway.DeletePrefix(ctx, s.buckets.PublishedBucket, record.Directory()+"/"); err != nil {
		s.log.Warn("failed to delete unpublished directory",
			zap.String("directory", record.Directory()), zap.Error(err))
	}

	return s.draftWithAuthors(ctx, draft)
}

// DeleteDraft removes the draft and its directory. When the draft was linked
// to a published article, that article stays live and is returned so the
// client can redirect to it.
func (s *lifecycleService) DeleteDraft(ctx context.Context, draftID uint) (*models.Published, error) {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	var linked *models.Published
	if draft.PublishedID != nil {
		linked, err = s.published.GetByID(*draft.PublishedID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if err := s.drafts.Delete(draft.ID); err != nil {
		return nil, err
	}

	if err := s.gateway.DeletePrefix(ctx, s.buckets.DraftBucket, draft.Directory()+"/"); err != nil {
		s.log.Warn("failed to delete draft directory",
			zap.String("directory", draft.Directory()), zap.Error(err))
	}

	return linked, nil
}

// DeleteBoth removes the draft and, when linked, the published article too:
// rows, directories and the search entry.
func (s *lifecycleService) DeleteBoth(ctx context.Context, draftID uint) error {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDraftNotFound
		}
		return err
	}

	var linked *models.Published
	if draft.PublishedID != nil {
		linked, err = s.published.GetByID(*draft.PublishedID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	// An orphan index entry is a lesser harm than blocking the deletion.
	if linked != nil {
		if err := s.indexer.Delete(search.ObjectID(linked.ID)); err != nil {
			s.log.Warn("search index delete failed", zap.Uint("published_id", linked.ID), zap.Error(err))
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.drafts.WithTx(tx).Delete(draft.ID); err != nil {
			return err
		}
		if linked != nil {
			return s.published.WithTx(tx).Delete(linked.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.gateway.DeletePrefix(ctx, s.buckets.DraftBucket, draft.Directory()+"/"); err != nil {
		s.log.Warn("failed to delete draft directory",
			zap.String("directory", draft.Directory()), zap.Error(err))
	}
	if linked != nil {
		if err := s.gateway.DeletePrefix(ctx, s.buckets.PublishedBucket, linked.Directory()+"/"); err != nil {
			s.log.Warn("failed to delete published directory",
				zap.String("directory", linked.Directory()), zap.Error(err))
		}
	}

	return nil
}

// DeleteCustomThumbnail removes exactly the uploaded-override thumbnail
// object. The caller persists any crop metadata change separately.
func (s *lifecycleService) DeleteCustomThumbnail(ctx context.Context, draftID uint) error {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDraftNotFound
		}
		return err
	}

	key := draft.Directory() + "/" + models.ThumbnailUploadedFileName
	return s.gateway.DeleteObjects(ctx, s.buckets.DraftBucket, []string{key})
}

func (s *lifecycleService) GetDraft(ctx context.Context, draftID uint) (*models.Draft, error) {
	draft, err := s.drafts.GetByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return s.draftWithAuthors(ctx, draft)
}

func (s *lifecycleService) GetPublished(ctx context.Context, publishedID uint) (*models.Published, error) {
	record, err := s.published.GetByID(publishedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublishedNotFound
		}
		return nil, err
	}
	return s.publishedWithAuthors(ctx, record)
}

func (s *lifecycleService) ListDrafts(ctx context.Context, params models.ListParams) ([]models.Draft, int64, error) {
	return s.drafts.GetList(params)
}

func (s *lifecycleService) ListPublished(ctx context.Context, params models.ListParams) ([]models.Published, int64, error) {
	return s.published.GetList(params)
}

// migrateAssets runs the content copy plan and the thumbnail migration
// concurrently and joins both before returning; nothing proceeds to a
// database commit with copies still in flight.
func (s *lifecycleService) migrateAssets(ctx context.Context, plan []storage.CopyInstruction, dest, src storage.Location, crop *models.ThumbnailCrop) int {
	var wg sync.WaitGroup
	var failed int

	wg.Add(1)
	go func() {
		defer wg.Done()
		failed = storage.CopyBatch(ctx, s.gateway, dest.Bucket, plan, s.log)
	}()

	if src.Bucket != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.thumbs.Migrate(ctx, src, dest, crop)
		}()
	}

	wg.Wait()
	return failed
}

func (s *lifecycleService) upsertIndex(record *models.Published) {
	ids := make([]uint, 0, len(record.Authors))
	for _, author := range record.Authors {
		ids = append(ids, author.ID)
	}
	if err := s.indexer.Upsert(search.BuildProjection(record, ids)); err != nil {
		s.log.Warn("search index upsert failed", zap.Uint("published_id", record.ID), zap.Error(err))
	}
}

func (s *lifecycleService) draftWithAuthors(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	ids, err := s.drafts.GetAuthorIDs(draft.ID)
	if err != nil {
		return nil, err
	}
	authors, err := s.cache.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	draft.Authors = authors
	return draft, nil
}

func (s *lifecycleService) publishedWithAuthors(ctx context.Context, record *models.Published) (*models.Published, error) {
	ids, err := s.published.GetAuthorIDs(record.ID)
	if err != nil {
		return nil, err
	}
	authors, err := s.cache.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	record.Authors = authors
	return record, nil
}
