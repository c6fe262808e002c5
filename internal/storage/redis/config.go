package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL bounds how long an untouched room survives. Every write
	// refreshes it on the room and its index keys. Zero disables expiry.
	RoomTTL time.Duration

	// MaxRetries is the number of optimistic transaction attempts before
	// a write gives up with a conflict
	MaxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      24 * time.Hour,
		MaxRetries:   16,
	}
}
