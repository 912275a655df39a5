package config

import (
	"github.com/matzehuels/flowsketch/pkg/cache"
	"github.com/matzehuels/flowsketch/pkg/completion"
)

// DefaultAddr is the server listen address.
const DefaultAddr = ":8080"

// defaults returns the base layer as a flat key map.
func defaults() map[string]any {
	return map[string]any{
		"server.addr": DefaultAddr,

		"completion.provider":    ProviderOpenAI,
		"completion.base_url":    completion.DefaultBaseURL,
		"completion.model":       completion.DefaultModel,
		"completion.api_key":     "",
		"completion.timeout":     completion.DefaultTimeout.String(),
		"completion.max_retries": completion.DefaultMaxRetries,

		"cache.backend":    CacheFile,
		"cache.dir":        "",
		"cache.redis_addr": "",
		"cache.ttl":        cache.TTLLayout.String(),

		"store.backend":        StoreMemory,
		"store.mongo_uri":      "",
		"store.mongo_database": "flowsketch",

		"layout.placer": PlacerLayered,
		"verbose":       false,
	}
}
