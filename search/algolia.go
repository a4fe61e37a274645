package search

import (
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
)

// AlgoliaIndexer implements Indexer over an Algolia index.
type AlgoliaIndexer struct {
	index *search.Index
}

func NewAlgoliaIndexer(appID, apiKey, indexName string) *AlgoliaIndexer {
	client := search.NewClient(appID, apiKey)
	return &AlgoliaIndexer{index: client.InitIndex(indexName)}
}

func (a *AlgoliaIndexer) Upsert(p Projection) error {
	_, err := a.index.SaveObject(p)
	return err
}

func (a *AlgoliaIndexer) Delete(objectID string) error {
	_, err := a.index.DeleteObject(objectID)
	return err
}
