package search

import (
	"strconv"
	"strings"

	"pressroom-cms/models"
)

const previewLimit = 300

// Projection is the denormalized read-model of a published article pushed to
// the search index. Distinct from the canonical database row.
type Projection struct {
	ObjectID     string `json:"objectID"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	PublishedAt  int64  `json:"published_at"`
	UpdatedAt    int64  `json:"updated_at"`
	AuthorIDs    []uint `json:"author_ids"`
	Preview      string `json:"preview"`
	HasThumbnail bool   `json:"has_thumbnail"`
}

// Indexer is the boundary to the external search index. Callers treat every
// failure as log-only: the database stays authoritative.
type Indexer interface {
	Upsert(p Projection) error
	Delete(objectID string) error
}

// ObjectID derives the index object id from a published record id.
func ObjectID(publishedID uint) string {
	return strconv.FormatUint(uint64(publishedID), 10)
}

// BuildProjection flattens a published record into its index document.
func BuildProjection(p *models.Published, authorIDs []uint) Projection {
	return Projection{
		ObjectID:     ObjectID(p.ID),
		Title:        p.Title,
		URL:          p.URL,
		PublishedAt:  p.CreatedAt.Unix(),
		UpdatedAt:    p.UpdatedAt.Unix(),
		AuthorIDs:    authorIDs,
		Preview:      preview(p.Content),
		HasThumbnail: p.ThumbnailCrop != nil,
	}
}

func preview(blocks models.Blocks) string {
	var sb strings.Builder
	for _, block := range blocks {
		text := strings.TrimSpace(block.Text())
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
		if sb.Len() >= previewLimit {
			break
		}
	}
	out := sb.String()
	if len(out) > previewLimit {
		out = out[:previewLimit]
	}
	return out
}
