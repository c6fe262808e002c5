package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
)

// Storage is a MongoDB-backed implementation of the storage interface.
//
// Rooms live in one collection and the membership index in another, keyed
// by member so the primary index rejects a second claim. Every write runs
// in a multi-document transaction, which requires a replica set.
type Storage struct {
	client      *mongo.Client
	rooms       *mongo.Collection
	memberships *mongo.Collection
	cfg         Config
}

// New connects to MongoDB and ensures the indexes the store relies on
func New(cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := NewWithClient(client, cfg)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithClient creates a store over an existing client
func NewWithClient(client *mongo.Client, cfg Config) *Storage {
	db := client.Database(cfg.Database)
	return &Storage{
		client:      client,
		rooms:       db.Collection(roomsCollection),
		memberships: db.Collection(membershipsCollection),
		cfg:         cfg,
	}
}

// EnsureIndexes creates the unique invite code index and the listing index
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		},
	})
	if err != nil {
		return err
	}
	_, err = s.memberships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}},
	})
	return err
}

// Close disconnects the client
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *model.Error
	if errors.As(err, &me) {
		return err
	}
	return model.Transient(err)
}

func normalizeCode(code model.InviteCode) model.InviteCode {
	return model.InviteCode(strings.ToUpper(string(code)))
}

// withTransaction runs fn in a transaction. The driver retries fn on
// transient transaction errors such as write conflicts.
func (s *Storage) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Storage) claim(ctx context.Context, roomID model.RoomID, ids []model.MemberID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.memberships.InsertMany(ctx, membershipDocuments(roomID, ids)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrAlreadyInRoom
		}
		return err
	}
	return nil
}

func (s *Storage) release(ctx context.Context, roomID model.RoomID, ids []model.MemberID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.memberships.DeleteMany(ctx, bson.M{
		"_id":     bson.M{"$in": memberKeys(ids)},
		"room_id": string(roomID),
	})
	return err
}

func (s *Storage) findRoom(ctx context.Context, filter bson.M) (*model.Room, error) {
	var doc roomDocument
	if err := s.rooms.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	stored := room.Clone()
	stored.InviteCode = normalizeCode(room.InviteCode)

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.claim(sc, stored.ID, stored.MemberIDs()); err != nil {
			return err
		}
		if _, err := s.rooms.InsertOne(sc, toDocument(stored)); err != nil {
			// Room ids are random, so a duplicate here is the invite code
			if mongo.IsDuplicateKeyError(err) {
				return model.ErrInviteCodeTaken
			}
			return err
		}
		return nil
	})
	return classify(err)
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := s.findRoom(ctx, bson.M{"_id": string(id)})
	return room, classify(err)
}

func (s *Storage) GetRoomByInviteCode(ctx context.Context, code model.InviteCode) (*model.Room, error) {
	room, err := s.findRoom(ctx, bson.M{"invite_code": string(normalizeCode(code))})
	return room, classify(err)
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	n, err := s.rooms.CountDocuments(ctx,
		bson.M{"invite_code": string(normalizeCode(code))},
		options.Count().SetLimit(1))
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (s *Storage) FindRoomIDByMember(ctx context.Context, id model.MemberID) (model.RoomID, error) {
	var doc membershipDocument
	if err := s.memberships.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", model.ErrNotInAnyRoom
		}
		return "", classify(err)
	}
	return model.RoomID(doc.RoomID), nil
}

func (s *Storage) ListRooms(ctx context.Context, filter storage.ListFilter) ([]*model.Room, int, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	total, err := s.rooms.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, classify(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(max(filter.Offset, 0)))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := s.rooms.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, classify(err)
	}
	var docs []roomDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, classify(err)
	}

	rooms := make([]*model.Room, len(docs))
	for i, doc := range docs {
		rooms[i] = doc.toModel()
	}
	return rooms, int(total), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.UpdateFunc) (*model.Room, error) {
	var result *model.Room

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		current, err := s.findRoom(sc, bson.M{"_id": string(id)})
		if err != nil {
			return err
		}

		updated := current.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		added, removed := storage.Prepare(current, updated)

		if err := s.claim(sc, id, added); err != nil {
			return err
		}
		res, err := s.rooms.ReplaceOne(sc,
			bson.M{"_id": string(id), "version": current.Version},
			toDocument(updated))
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return model.ErrConcurrentModification
		}
		if err := s.release(sc, id, removed); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.rooms.DeleteOne(sc, bson.M{"_id": string(id)})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return model.ErrRoomNotFound
		}
		_, err = s.memberships.DeleteMany(sc, bson.M{"room_id": string(id)})
		return err
	})
	return classify(err)
}
