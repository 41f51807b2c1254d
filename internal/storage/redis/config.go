package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// HistoryTTL is refreshed on every append to a room's match history.
	// Zero keeps history forever.
	HistoryTTL time.Duration

	// HistoryLimit caps the number of summaries kept per room
	HistoryLimit int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		HistoryTTL:   7 * 24 * time.Hour,
		HistoryLimit: 50,
	}
}
