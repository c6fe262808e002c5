package redis

import (
	"fmt"

	"github.com/mcoot/civlobby/internal/model"
)

// Key prefix for all lobby data
const keyPrefix = "civlobby"

// roomKey returns the Redis key for a Room document
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// memberIndexKey returns the Redis key for the member -> room_id index
func memberIndexKey(id model.MemberID) string {
	return fmt.Sprintf("%s:idx:member:%s", keyPrefix, id)
}

// inviteIndexKey returns the Redis key for the invite code -> room_id index
func inviteIndexKey(code model.InviteCode) string {
	return fmt.Sprintf("%s:idx:invite:%s", keyPrefix, code)
}

// statusIndexKey returns the Redis key for the ZSET of rooms in a status,
// scored by creation time
func statusIndexKey(status model.RoomStatus) string {
	return fmt.Sprintf("%s:idx:rooms:%s", keyPrefix, status)
}

// allRoomsKey returns the Redis key for the ZSET of every room
func allRoomsKey() string {
	return fmt.Sprintf("%s:idx:rooms:all", keyPrefix)
}

func memberIndexKeys(ids []model.MemberID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = memberIndexKey(id)
	}
	return keys
}
