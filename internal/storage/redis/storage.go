package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
//
// Each room is a JSON document. Writes run inside WATCH/MULTI transactions
// on the room key and on any membership index keys being claimed, so a
// concurrent write to either aborts and retries the transaction.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// classify passes domain errors through and marks everything else from
// Redis as transient
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

func score(room *model.Room) float64 {
	return float64(room.CreatedAt.UnixMilli())
}

// transact runs fn under WATCH on keys, retrying when another client
// touched a watched key before EXEC
func (s *Storage) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	attempts := s.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return model.ErrConcurrentModification
}

func (s *Storage) loadRoom(ctx context.Context, c redis.Cmdable, id model.RoomID) (*model.Room, error) {
	data, err := c.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	stored := room.Clone()
	stored.InviteCode = normalizeCode(room.InviteCode)
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	memberKeys := memberIndexKeys(stored.MemberIDs())
	watched := append([]string{roomKey(stored.ID), inviteIndexKey(stored.InviteCode)}, memberKeys...)
	ttl := s.cfg.RoomTTL

	err = s.transact(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, roomKey(stored.ID)).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrConcurrentModification
		}
		n, err = tx.Exists(ctx, inviteIndexKey(stored.InviteCode)).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrInviteCodeTaken
		}
		if len(memberKeys) > 0 {
			n, err = tx.Exists(ctx, memberKeys...).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return model.ErrAlreadyInRoom
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey(stored.ID), data, ttl)
			pipe.Set(ctx, inviteIndexKey(stored.InviteCode), string(stored.ID), ttl)
			for _, key := range memberKeys {
				pipe.Set(ctx, key, string(stored.ID), ttl)
			}
			z := redis.Z{Score: score(stored), Member: string(stored.ID)}
			pipe.ZAdd(ctx, statusIndexKey(stored.Status), z)
			pipe.ZAdd(ctx, allRoomsKey(), z)
			return nil
		})
		return err
	}, watched...)
	return classify(err)
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := s.loadRoom(ctx, s.client, id)
	return room, classify(err)
}

func (s *Storage) GetRoomByInviteCode(ctx context.Context, code model.InviteCode) (*model.Room, error) {
	id, err := s.client.Get(ctx, inviteIndexKey(normalizeCode(code))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, classify(err)
	}
	return s.GetRoom(ctx, model.RoomID(id))
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	n, err := s.client.Exists(ctx, inviteIndexKey(normalizeCode(code))).Result()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (s *Storage) FindRoomIDByMember(ctx context.Context, id model.MemberID) (model.RoomID, error) {
	roomID, err := s.client.Get(ctx, memberIndexKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNotInAnyRoom
		}
		return "", classify(err)
	}
	return model.RoomID(roomID), nil
}

func (s *Storage) ListRooms(ctx context.Context, filter storage.ListFilter) ([]*model.Room, int, error) {
	key := allRoomsKey()
	if filter.Status != "" {
		key = statusIndexKey(filter.Status)
	}

	total, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, classify(err)
	}

	start := int64(max(filter.Offset, 0))
	stop := int64(-1)
	if filter.Limit > 0 {
		stop = start + int64(filter.Limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, 0, classify(err)
	}
	if len(ids) == 0 {
		return []*model.Room{}, int(total), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, classify(err)
	}

	rooms := make([]*model.Room, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Room expired but its index entry survived
			stale = append(stale, ids[i])
			continue
		}
		var room model.Room
		if err := json.Unmarshal([]byte(raw), &room); err != nil {
			return nil, 0, err
		}
		rooms = append(rooms, &room)
	}
	if len(stale) > 0 {
		pipe := s.client.Pipeline()
		pipe.ZRem(ctx, key, stale...)
		pipe.ZRem(ctx, allRoomsKey(), stale...)
		_, _ = pipe.Exec(ctx)
		total -= int64(len(stale))
	}
	return rooms, int(total), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.UpdateFunc) (*model.Room, error) {
	ttl := s.cfg.RoomTTL
	var result *model.Room

	err := s.transact(ctx, func(tx *redis.Tx) error {
		current, err := s.loadRoom(ctx, tx, id)
		if err != nil {
			return err
		}

		updated := current.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		added, removed := storage.Prepare(current, updated)

		addedKeys := memberIndexKeys(added)
		if len(addedKeys) > 0 {
			if err := tx.Watch(ctx, addedKeys...).Err(); err != nil {
				return err
			}
			n, err := tx.Exists(ctx, addedKeys...).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return model.ErrAlreadyInRoom
			}
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey(id), data, ttl)
			for _, key := range addedKeys {
				pipe.Set(ctx, key, string(id), ttl)
			}
			for _, key := range memberIndexKeys(removed) {
				pipe.Del(ctx, key)
			}
			if updated.Status != current.Status {
				pipe.ZRem(ctx, statusIndexKey(current.Status), string(id))
				pipe.ZAdd(ctx, statusIndexKey(updated.Status), redis.Z{Score: score(updated), Member: string(id)})
			}
			if ttl > 0 {
				pipe.Expire(ctx, inviteIndexKey(updated.InviteCode), ttl)
				for _, key := range memberIndexKeys(updated.MemberIDs()) {
					pipe.Expire(ctx, key, ttl)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = updated
		return nil
	}, roomKey(id))
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	err := s.transact(ctx, func(tx *redis.Tx) error {
		room, err := s.loadRoom(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			keys := append([]string{roomKey(id), inviteIndexKey(room.InviteCode)}, memberIndexKeys(room.MemberIDs())...)
			pipe.Del(ctx, keys...)
			pipe.ZRem(ctx, statusIndexKey(room.Status), string(id))
			pipe.ZRem(ctx, allRoomsKey(), string(id))
			return nil
		})
		return err
	}, roomKey(id))
	return classify(err)
}
