package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom-cms/models"
	"pressroom-cms/storage"
)

func newTestRewriter() *AssetRewriter {
	return NewAssetRewriter("drafts", "published", "storage.pressroom.dev")
}

func imageBlock(url string) models.Block {
	data, _ := json.Marshal(map[string]interface{}{
		"file":    map[string]interface{}{"url": url},
		"caption": "pic",
	})
	return models.Block{Type: models.BlockTypeImage, Data: data}
}

func TestRewriteMovesAssetsAndEmitsPlan(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{
		{Type: models.BlockTypeHeader, Data: json.RawMessage(`{"text":"Cat Story","level":1}`)},
		imageBlock("https://drafts.storage.pressroom.dev/12/cat.png"),
		{Type: models.BlockTypeParagraph, Data: json.RawMessage(`{"text":"about a cat"}`)},
	}
	dest := storage.Location{Bucket: "published", Directory: "cat-story-01-03-2024"}

	out, plan, err := r.Rewrite(blocks, dest)
	require.NoError(t, err)

	url, err := out[1].AssetURL()
	require.NoError(t, err)
	assert.Equal(t, "https://published.storage.pressroom.dev/cat-story-01-03-2024/cat.png", url)

	require.Len(t, plan, 1)
	assert.Equal(t, "drafts", plan[0].SourceBucket)
	assert.Equal(t, "12/cat.png", plan[0].SourceKey())
	assert.Equal(t, "cat-story-01-03-2024/cat.png", plan[0].DestinationKey())

	// Non-asset blocks pass through untouched.
	assert.Equal(t, blocks[0].Data, out[0].Data)
	assert.Equal(t, blocks[2].Data, out[2].Data)
}

func TestRewriteLeavesOriginalUntouched(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/12/cat.png")}
	before := string(blocks[0].Data)

	_, _, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "cat-story-01-03-2024"})
	require.NoError(t, err)

	assert.Equal(t, before, string(blocks[0].Data))
}

func TestRewriteDeduplicatesPlan(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{
		imageBlock("https://drafts.storage.pressroom.dev/12/cat.png"),
		imageBlock("https://drafts.storage.pressroom.dev/12/cat.png"),
		imageBlock("https://drafts.storage.pressroom.dev/12/dog.png"),
	}

	out, plan, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "pets-01-03-2024"})
	require.NoError(t, err)

	assert.Len(t, out, 3)
	assert.Len(t, plan, 2)
}

func TestRewriteIsIdempotent(t *testing.T) {
	r := newTestRewriter()
	dest := storage.Location{Bucket: "published", Directory: "cat-story-01-03-2024"}
	blocks := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/12/cat.png")}

	once, _, err := r.Rewrite(blocks, dest)
	require.NoError(t, err)
	twice, plan, err := r.Rewrite(once, dest)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	// The second pass copies within the destination directory onto itself.
	require.Len(t, plan, 1)
	assert.Equal(t, plan[0].SourceKey(), plan[0].DestinationKey())
}

func TestRewriteRejectsMalformedPath(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/a/b/c.png")}

	_, _, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "x"})
	assert.ErrorIs(t, err, ErrMalformedAssetURL)
}

func TestRewriteRejectsMissingFilename(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/12/")}

	_, _, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "x"})
	assert.ErrorIs(t, err, ErrMalformedAssetURL)
}

func TestRewriteRejectsForeignBucket(t *testing.T) {
	r := newTestRewriter()
	blocks := models.Blocks{imageBlock("https://elsewhere.example.com/12/cat.png")}

	_, _, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "x"})
	assert.ErrorIs(t, err, ErrForeignBucket)
}

func TestRewritePassesThroughUnknownBlockKinds(t *testing.T) {
	r := newTestRewriter()
	raw := json.RawMessage(`{"items":["one","two"],"style":"ordered"}`)
	blocks := models.Blocks{{Type: "list", Data: raw}}

	out, plan, err := r.Rewrite(blocks, storage.Location{Bucket: "published", Directory: "x"})
	require.NoError(t, err)

	assert.Empty(t, plan)
	assert.Equal(t, raw, out[0].Data)
}

func TestValidateOwnership(t *testing.T) {
	r := newTestRewriter()
	own := storage.Location{Bucket: "drafts", Directory: "12"}

	ok := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/12/cat.png")}
	assert.NoError(t, r.ValidateOwnership(ok, own))

	otherDir := models.Blocks{imageBlock("https://drafts.storage.pressroom.dev/13/cat.png")}
	assert.ErrorIs(t, r.ValidateOwnership(otherDir, own), ErrForeignBucket)

	otherBucket := models.Blocks{imageBlock("https://published.storage.pressroom.dev/12/cat.png")}
	assert.ErrorIs(t, r.ValidateOwnership(otherBucket, own), ErrForeignBucket)
}

func TestPublicURL(t *testing.T) {
	r := newTestRewriter()
	assert.Equal(t,
		"https://drafts.storage.pressroom.dev/12/cat.png",
		r.PublicURL("drafts", "12", "cat.png"))
}
