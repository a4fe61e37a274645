package config

import "os"

type SearchConfig struct {
	AppID     string
	APIKey    string
	IndexName string
}

func LoadSearch() SearchConfig {
	return SearchConfig{
		AppID:     os.Getenv("ALGOLIA_APP_ID"),
		APIKey:    os.Getenv("ALGOLIA_API_KEY"),
		IndexName: getenv("ALGOLIA_INDEX", "articles"),
	}
}
