package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/quakewatch/internal/domain"
)

// Config holds all dashboard settings, populated from environment variables.
type Config struct {
	// USGS feed.
	USGSBaseURL            string
	USGSTimeout            time.Duration
	USGSQueryLimit         int
	USGSMinRequestInterval time.Duration

	// Initial feed selection and refresh behaviour.
	Selector        domain.Selector
	RefreshInterval time.Duration
	CacheTTL        time.Duration
	CacheSize       int

	// Map presentation.
	TileLayersFile string
	TileLayer      string
	BoundariesFile string
	ShowBoundaries bool
	Theme          string

	// Optional operational endpoint; empty disables it.
	HTTPAddr string

	// Optional Kafka mirror of fetched collections.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	usgsTimeout, err := parseDuration("USGS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	minInterval, err := parseDuration("USGS_MIN_REQUEST_INTERVAL", "2s")
	if err != nil {
		return nil, err
	}
	refresh, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "2m")
	if err != nil {
		return nil, err
	}
	queryLimit, err := parsePositiveInt("USGS_QUERY_LIMIT", 20000)
	if err != nil {
		return nil, err
	}
	if queryLimit > 20000 {
		return nil, errors.New("USGS_QUERY_LIMIT must not exceed 20000")
	}
	cacheSize, err := parsePositiveInt("CACHE_SIZE", 32)
	if err != nil {
		return nil, err
	}

	interval, err := domain.ParseInterval(sharedcfg.EnvOrDefault("FEED_INTERVAL", "day"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_INTERVAL: %w", err)
	}
	level, err := domain.ParseLevel(sharedcfg.EnvOrDefault("FEED_LEVEL", "all"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_LEVEL: %w", err)
	}

	theme := sharedcfg.EnvOrDefault("THEME", "dark")
	if theme != "dark" && theme != "light" {
		return nil, errors.New("THEME must be dark or light")
	}

	cfg := &Config{
		USGSBaseURL:            sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://earthquake.usgs.gov"),
		USGSTimeout:            usgsTimeout,
		USGSQueryLimit:         queryLimit,
		USGSMinRequestInterval: minInterval,

		Selector:        domain.Selector{Mode: domain.ModeInterval, Interval: interval, Level: level},
		RefreshInterval: refresh,
		CacheTTL:        cacheTTL,
		CacheSize:       cacheSize,

		TileLayersFile: os.Getenv("TILE_LAYERS_FILE"),
		TileLayer:      os.Getenv("TILE_LAYER"),
		BoundariesFile: os.Getenv("BOUNDARIES_FILE"),
		ShowBoundaries: os.Getenv("SHOW_BOUNDARIES") != "false",
		Theme:          theme,

		HTTPAddr: os.Getenv("HTTP_ADDR"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "earthquake-features"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.USGSBaseURL == "" {
		return nil, errors.New("USGS_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return n, nil
}
