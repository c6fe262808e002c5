package storage

import "github.com/mcoot/civlobby/internal/model"

// DiffMembers reports which member ids an update adds and removes
func DiffMembers(before, after []model.MemberID) (added, removed []model.MemberID) {
	prev := make(map[model.MemberID]struct{}, len(before))
	for _, id := range before {
		prev[id] = struct{}{}
	}
	next := make(map[model.MemberID]struct{}, len(after))
	for _, id := range after {
		next[id] = struct{}{}
		if _, ok := prev[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// Page applies offset and limit to n items, returning the slice bounds.
// A non-positive limit returns everything after offset.
func Page(n, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		return n, n
	}
	end = n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

// Prepare pins the identity fields the store owns and bumps Version on
// updated, returning the members added and removed relative to current
func Prepare(current, updated *model.Room) (added, removed []model.MemberID) {
	updated.ID = current.ID
	updated.InviteCode = current.InviteCode
	updated.HostID = current.HostID
	updated.CreatedAt = current.CreatedAt
	updated.Version = current.Version + 1
	return DiffMembers(current.MemberIDs(), updated.MemberIDs())
}
