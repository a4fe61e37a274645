package config

import "os"

// RedisConfig configures the author read-through cache. An empty Addr
// disables caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func LoadRedis() RedisConfig {
	return RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}
