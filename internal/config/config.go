// Package config loads flowsketch settings.
//
// Values are layered, later sources winning:
//
//  1. Built-in defaults
//  2. Config file (flowsketch.yaml, flowsketch.yml or flowsketch.toml)
//  3. Environment variables with the FLOWSKETCH_ prefix
//  4. Command-line flags that were explicitly set
//
// Environment keys use a double underscore for nesting, so
// FLOWSKETCH_COMPLETION__API_KEY sets completion.api_key.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Backend and placer names.
const (
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"

	StoreMemory = "memory"
	StoreMongo  = "mongo"

	PlacerLayered  = "layered"
	PlacerGraphviz = "graphviz"
)

// Config is the full settings tree.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Completion CompletionConfig `koanf:"completion"`
	Cache      CacheConfig      `koanf:"cache"`
	Store      StoreConfig      `koanf:"store"`
	Layout     LayoutConfig     `koanf:"layout"`
	Verbose    bool             `koanf:"verbose"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// CompletionConfig configures the completion provider.
type CompletionConfig struct {
	Provider   string        `koanf:"provider"`
	BaseURL    string        `koanf:"base_url"`
	Model      string        `koanf:"model"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
}

// CacheConfig configures the layout and export cache.
type CacheConfig struct {
	Backend   string        `koanf:"backend"`
	Dir       string        `koanf:"dir"`
	RedisAddr string        `koanf:"redis_addr"`
	TTL       time.Duration `koanf:"ttl"`
}

// StoreConfig configures document persistence.
type StoreConfig struct {
	Backend       string `koanf:"backend"`
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// LayoutConfig selects the placement engine.
type LayoutConfig struct {
	Placer string `koanf:"placer"`
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if err := oneOf("completion.provider", c.Completion.Provider, ProviderOpenAI, ProviderNone); err != nil {
		return err
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion.timeout must be positive, got %s", c.Completion.Timeout)
	}
	if c.Completion.MaxRetries < 0 {
		return fmt.Errorf("completion.max_retries must not be negative, got %d", c.Completion.MaxRetries)
	}
	if err := oneOf("cache.backend", c.Cache.Backend, CacheNone, CacheFile, CacheRedis); err != nil {
		return err
	}
	if c.Cache.Backend != CacheNone && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if err := oneOf("store.backend", c.Store.Backend, StoreMemory, StoreMongo); err != nil {
		return err
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return fmt.Errorf("store.mongo_uri is required for the mongo backend")
	}
	return oneOf("layout.placer", c.Layout.Placer, PlacerLayered, PlacerGraphviz)
}

func oneOf(key, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("unknown %s %q (want one of: %s)", key, value, strings.Join(allowed, ", "))
}
