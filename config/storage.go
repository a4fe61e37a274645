package config

import "os"

// StorageConfig names the two buckets the backend owns and how to reach them.
// Domain is the public host suffix asset URLs are built from:
// https://<bucket>.<domain>/<directory>/<filename>.
type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	DraftBucket     string
	PublishedBucket string
	Domain          string
}

func LoadStorage() StorageConfig {
	return StorageConfig{
		Endpoint:        getenv("STORAGE_ENDPOINT", "localhost:9000"),
		AccessKey:       os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey:       os.Getenv("STORAGE_SECRET_KEY"),
		UseSSL:          os.Getenv("STORAGE_USE_SSL") == "true",
		DraftBucket:     getenv("STORAGE_DRAFT_BUCKET", "drafts"),
		PublishedBucket: getenv("STORAGE_PUBLISHED_BUCKET", "published"),
		Domain:          getenv("STORAGE_DOMAIN", "storage.pressroom.dev"),
	}
}
