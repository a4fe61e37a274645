package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pressroom-cms/config"
	"pressroom-cms/models"
	"pressroom-cms/repositories"
	"pressroom-cms/search"
	"pressroom-cms/storage"
)

// fakeIndexer records every index call in order so tests can assert both the
// payloads and the sequencing relative to other side effects.
type fakeIndexer struct {
	ops     []string
	upserts []search.Projection
	deletes []string
}

func (f *fakeIndexer) Upsert(p search.Projection) error {
	f.ops = append(f.ops, "upsert:"+p.ObjectID)
	f.upserts = append(f.upserts, p)
	return nil
}

func (f *fakeIndexer) Delete(objectID string) error {
	f.ops = append(f.ops, "delete:"+objectID)
	f.deletes = append(f.deletes, objectID)
	return nil
}

type lifecycleFixture struct {
	svc       LifecycleService
	db        *gorm.DB
	gateway   *storage.MemoryGateway
	indexer   *fakeIndexer
	drafts    repositories.DraftRepository
	published repositories.PublishedRepository
	authors   repositories.AuthorRepository
	cfg       config.StorageConfig
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:lifecycle-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Author{}, &models.Draft{}, &models.Published{},
		&models.DraftAuthor{}, &models.PublishedAuthor{},
	))

	cfg := config.StorageConfig{
		DraftBucket:     "drafts",
		PublishedBucket: "published",
		Domain:          "storage.pressroom.dev",
	}

	gateway := storage.NewMemoryGateway()
	indexer := &fakeIndexer{}
	draftRepo := repositories.NewDraftRepository(db)
	publishedRepo := repositories.NewPublishedRepository(db)
	authorRepo := repositories.NewAuthorRepository(db)
	log := zap.NewNop()
	cache := NewAuthorCache(nil, authorRepo, log)
	rewriter := NewAssetRewriter(cfg.DraftBucket, cfg.PublishedBucket, cfg.Domain)
	thumbs := NewThumbnailMigrator(gateway, log)

	svc := NewLifecycleService(db, draftRepo, publishedRepo, rewriter, thumbs, gateway, indexer, cache, cfg, log)

	return &lifecycleFixture{
		svc:       svc,
		db:        db,
		gateway:   gateway,
		indexer:   indexer,
		drafts:    draftRepo,
		published: publishedRepo,
		authors:   authorRepo,
		cfg:       cfg,
	}
}

func (f *lifecycleFixture) seedAuthor(t *testing.T, name string) *models.Author {
	t.Helper()
	author := &models.Author{Name: name}
	require.NoError(t, f.authors.Create(author))
	return author
}

// seedDraftWithAsset creates a draft whose content references one image in the
// draft's own directory, and places that object in the gateway.
func (f *lifecycleFixture) seedDraftWithAsset(t *testing.T, title, filename string) *models.Draft {
	t.Helper()

	draft := &models.Draft{Title: title}
	require.NoError(t, f.drafts.Create(draft))

	url := fmt.Sprintf("https://%s.%s/%s/%s", f.cfg.DraftBucket, f.cfg.Domain, draft.Directory(), filename)
	draft.Content = models.Blocks{
		models.HeaderBlock(title),
		{Type: models.BlockTypeImage, Data: mustJSON(t, map[string]interface{}{
			"file": map[string]interface{}{"url": url},
		})},
	}
	require.NoError(t, f.drafts.Update(draft))

	f.gateway.Seed(f.cfg.DraftBucket, draft.Directory()+"/"+filename, []byte(filename))
	return draft
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func firstAssetURL(t *testing.T, blocks models.Blocks) string {
	t.Helper()
	for _, block := range blocks {
		if block.HasAsset() {
			url, err := block.AssetURL()
			require.NoError(t, err)
			return url
		}
	}
	t.Fatal("no asset block in content")
	return ""
}

func TestCreateDraftStartsWithTitleHeading(t *testing.T) {
	f := newLifecycleFixture(t)
	author := f.seedAuthor(t, "Ada")

	draft, err := f.svc.CreateDraft(context.Background(), models.CreateDraftRequest{
		Title:     "My Article",
		AuthorIDs: []uint{author.ID},
	})
	require.NoError(t, err)

	require.Len(t, draft.Content, 1)
	assert.Equal(t, models.BlockTypeHeader, draft.Content[0].Type)
	assert.Equal(t, "My Article", draft.Content[0].Text())
	require.Len(t, draft.Authors, 1)
	assert.Equal(t, "Ada", draft.Authors[0].Name)
}

func TestPublishMovesAssetsAndConsumesDraft(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	author := f.seedAuthor(t, "Ada")
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")
	draftDir := draft.Directory()

	record, err := f.svc.Publish(ctx, models.PublishRequest{
		DraftID:   &draft.ID,
		Title:     "Cat Story",
		AuthorIDs: []uint{author.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "cat-story", record.URL)
	wantDir := fmt.Sprintf("cat-story-%s", record.CreatedAt.Format("02-01-2006"))
	assert.Equal(t, wantDir, record.Directory())

	// Content now points at the published directory.
	assert.Equal(t,
		fmt.Sprintf("https://published.storage.pressroom.dev/%s/cat.png", wantDir),
		firstAssetURL(t, record.Content))

	// The object moved and the draft directory was emptied.
	_, ok := f.gateway.Get("published", wantDir+"/cat.png")
	assert.True(t, ok)
	keys, _ := f.gateway.List(ctx, "drafts", draftDir+"/")
	assert.Empty(t, keys)

	// The draft row is consumed.
	_, err = f.drafts.GetByID(draft.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The index received the projection.
	require.Len(t, f.indexer.upserts, 1)
	assert.Equal(t, search.ObjectID(record.ID), f.indexer.upserts[0].ObjectID)
	assert.Equal(t, []uint{author.ID}, f.indexer.upserts[0].AuthorIDs)
}

func TestPublishMigratesThumbnails(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")
	draft.ThumbnailCrop = &models.ThumbnailCrop{Width: 100, Height: 60, UploadedCustomThumbnail: true}
	require.NoError(t, f.drafts.Update(draft))
	f.gateway.Seed("drafts", draft.Directory()+"/"+models.ThumbnailFileName, []byte("t"))
	f.gateway.Seed("drafts", draft.Directory()+"/"+models.ThumbnailUploadedFileName, []byte("u"))

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)

	_, ok := f.gateway.Get("published", record.Directory()+"/"+models.ThumbnailFileName)
	assert.True(t, ok)
	_, ok = f.gateway.Get("published", record.Directory()+"/"+models.ThumbnailUploadedFileName)
	assert.True(t, ok)
}

func TestPublishMalformedAssetURLAbortsCleanly(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	draft := &models.Draft{Title: "Broken"}
	require.NoError(t, f.drafts.Create(draft))
	draft.Content = models.Blocks{{Type: models.BlockTypeImage, Data: mustJSON(t, map[string]interface{}{
		"file": map[string]interface{}{"url": "https://drafts.storage.pressroom.dev/a/b/c.png"},
	})}}
	require.NoError(t, f.drafts.Update(draft))

	_, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Broken"})
	require.ErrorIs(t, err, ErrMalformedAssetURL)

	// Nothing happened: no row, no objects, no index traffic, draft intact.
	var count int64
	require.NoError(t, f.db.Model(&models.Published{}).Count(&count).Error)
	assert.Zero(t, count)
	keys, _ := f.gateway.List(ctx, "published", "")
	assert.Empty(t, keys)
	assert.Empty(t, f.indexer.ops)
	_, err = f.drafts.GetByID(draft.ID)
	assert.NoError(t, err)
}

func TestPublishUnpublishRoundTrip(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	author := f.seedAuthor(t, "Ada")
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{
		DraftID:   &draft.ID,
		Title:     "Cat Story",
		AuthorIDs: []uint{author.ID},
	})
	require.NoError(t, err)
	publishedDir := record.Directory()

	restored, err := f.svc.Unpublish(ctx, record.ID)
	require.NoError(t, err)

	// The index entry went away before anything else.
	assert.Equal(t, "delete:"+search.ObjectID(record.ID), f.indexer.ops[len(f.indexer.ops)-1])

	// A fresh standalone draft holds the content with its filenames intact.
	assert.Nil(t, restored.PublishedID)
	assert.Equal(t,
		fmt.Sprintf("https://drafts.storage.pressroom.dev/%s/cat.png", restored.Directory()),
		firstAssetURL(t, restored.Content))
	_, ok := f.gateway.Get("drafts", restored.Directory()+"/cat.png")
	assert.True(t, ok)

	// The published side is gone entirely.
	_, err = f.published.GetByID(record.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	keys, _ := f.gateway.List(ctx, "published", publishedDir+"/")
	assert.Empty(t, keys)

	// Authorship survived the round trip.
	require.Len(t, restored.Authors, 1)
	assert.Equal(t, "Ada", restored.Authors[0].Name)
}

func TestRepublishReusesOriginalDate(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)
	originalDir := record.Directory()

	// Fork, then publish the fork back over the same article.
	fork, err := f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &record.ID})
	require.NoError(t, err)

	updated, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &fork.ID, Title: "Cat Story"})
	require.NoError(t, err)

	assert.Equal(t, record.ID, updated.ID)
	assert.Equal(t, originalDir, updated.Directory())
	_, ok := f.gateway.Get("published", originalDir+"/cat.png")
	assert.True(t, ok)

	// The fork is consumed like any other published draft.
	_, err = f.drafts.GetByID(fork.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateDraftForkIsIdempotent(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)

	first, err := f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &record.ID})
	require.NoError(t, err)
	second, err := f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &record.ID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, first.PublishedID)
	assert.Equal(t, record.ID, *first.PublishedID)

	// The fork got its own copies; the published objects stayed put.
	assert.Equal(t,
		fmt.Sprintf("https://drafts.storage.pressroom.dev/%s/cat.png", first.Directory()),
		firstAssetURL(t, first.Content))
	_, ok := f.gateway.Get("drafts", first.Directory()+"/cat.png")
	assert.True(t, ok)
	_, ok = f.gateway.Get("published", record.Directory()+"/cat.png")
	assert.True(t, ok)
}

func TestUnpublishWithoutLinkedDraftCreatesOne(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)

	// Publish consumed the draft, so no linked draft exists now.
	restored, err := f.svc.Unpublish(ctx, record.ID)
	require.NoError(t, err)

	assert.NotEqual(t, draft.ID, restored.ID)
	assert.Equal(t, "Cat Story", restored.Title)
	_, ok := f.gateway.Get("drafts", restored.Directory()+"/cat.png")
	assert.True(t, ok)
}

func TestDeleteDraftReturnsLinkedPublished(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)
	fork, err := f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &record.ID})
	require.NoError(t, err)

	linked, err := f.svc.DeleteDraft(ctx, fork.ID)
	require.NoError(t, err)

	require.NotNil(t, linked)
	assert.Equal(t, record.ID, linked.ID)

	// The article stays live; only the draft and its objects are gone.
	_, err = f.published.GetByID(record.ID)
	assert.NoError(t, err)
	keys, _ := f.gateway.List(ctx, "drafts", fork.Directory()+"/")
	assert.Empty(t, keys)
}

func TestDeleteBothRemovesEverything(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	record, err := f.svc.Publish(ctx, models.PublishRequest{DraftID: &draft.ID, Title: "Cat Story"})
	require.NoError(t, err)
	fork, err := f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &record.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBoth(ctx, fork.ID))

	var draftCount, publishedCount int64
	require.NoError(t, f.db.Model(&models.Draft{}).Count(&draftCount).Error)
	require.NoError(t, f.db.Model(&models.Published{}).Count(&publishedCount).Error)
	assert.Zero(t, draftCount)
	assert.Zero(t, publishedCount)

	keys, _ := f.gateway.List(ctx, "drafts", "")
	assert.Empty(t, keys)
	keys, _ = f.gateway.List(ctx, "published", "")
	assert.Empty(t, keys)

	assert.Contains(t, f.indexer.deletes, search.ObjectID(record.ID))
}

func TestDeleteCustomThumbnailRemovesOnlyOverride(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	draft := &models.Draft{Title: "Cat Story"}
	require.NoError(t, f.drafts.Create(draft))
	f.gateway.Seed("drafts", draft.Directory()+"/"+models.ThumbnailFileName, []byte("t"))
	f.gateway.Seed("drafts", draft.Directory()+"/"+models.ThumbnailUploadedFileName, []byte("u"))

	require.NoError(t, f.svc.DeleteCustomThumbnail(ctx, draft.ID))

	_, ok := f.gateway.Get("drafts", draft.Directory()+"/"+models.ThumbnailUploadedFileName)
	assert.False(t, ok)
	_, ok = f.gateway.Get("drafts", draft.Directory()+"/"+models.ThumbnailFileName)
	assert.True(t, ok)
}

func TestSaveDraftRejectsForeignReferences(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	draft := f.seedDraftWithAsset(t, "Cat Story", "cat.png")

	foreign := models.Blocks{{Type: models.BlockTypeImage, Data: mustJSON(t, map[string]interface{}{
		"file": map[string]interface{}{"url": "https://drafts.storage.pressroom.dev/99999/cat.png"},
	})}}

	_, err := f.svc.SaveDraft(ctx, draft.ID, models.SaveDraftRequest{Title: "Cat Story", Content: foreign})
	assert.ErrorIs(t, err, ErrForeignBucket)
}

func TestLifecycleNotFoundErrors(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetDraft(ctx, 404)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = f.svc.Unpublish(ctx, 404)
	assert.ErrorIs(t, err, ErrPublishedNotFound)
	missing := uint(404)
	_, err = f.svc.CreateDraft(ctx, models.CreateDraftRequest{PublishedID: &missing})
	assert.ErrorIs(t, err, ErrPublishedNotFound)
}
