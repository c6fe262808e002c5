package mongo

import "time"

// Config holds MongoDB connection settings
type Config struct {
	URI      string
	Database string

	// ConnectTimeout bounds the initial connect and ping
	ConnectTimeout time.Duration
}

// DefaultConfig returns sensible defaults for MongoDB configuration
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "civlobby",
		ConnectTimeout: 10 * time.Second,
	}
}

const (
	roomsCollection       = "rooms"
	membershipsCollection = "memberships"
)
