package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/civlobby/internal/storage"
	"github.com/mcoot/civlobby/internal/storage/storagetest"
)

// The store needs a replica set for transactions, so these tests only run
// against a real deployment, e.g.
// CIVLOBBY_TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	uri := os.Getenv("CIVLOBBY_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CIVLOBBY_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := new(StorageSuite)
	n := 0
	s.NewStorage = func() storage.Storage {
		n++
		cfg := DefaultConfig()
		cfg.Database = fmt.Sprintf("civlobby_test_%d_%d", os.Getpid(), n)
		store := NewWithClient(client, cfg)
		if err := store.EnsureIndexes(s.T().Context()); err != nil {
			s.T().Fatalf("indexes: %v", err)
		}
		s.T().Cleanup(func() { _ = client.Database(cfg.Database).Drop(context.Background()) })
		return &sharedClientStorage{Storage: store}
	}
	suite.Run(t, s)
}

// sharedClientStorage leaves the shared client connected between tests
type sharedClientStorage struct {
	*Storage
}

func (s *sharedClientStorage) Close() error {
	return nil
}
