package store

import (
	"fmt"

	"librarium/internal/domain"
)

// Store is the arena of candidate rooms. It owns room identity: every
// handle crossing package boundaries is a RoomID, and merged-away IDs keep
// resolving to the surviving representative through the forwarding map, so
// no caller ever holds a stale pointer.
type Store struct {
	rooms   map[RoomID]*Room
	order   []RoomID
	forward map[RoomID]RoomID
	byPath  map[string]RoomID
	nextID  RoomID
	start   RoomID
}

// NewStore creates an empty store. The starting room is created by the
// first FindOrCreate call with an empty path.
func NewStore() *Store {
	return &Store{
		rooms:   make(map[RoomID]*Room),
		forward: make(map[RoomID]RoomID),
		byPath:  make(map[string]RoomID),
		start:   NoRoom,
	}
}

// Resolve follows merge forwarding to the canonical representative of id.
func (s *Store) Resolve(id RoomID) RoomID {
	for {
		next, ok := s.forward[id]
		if !ok {
			return id
		}
		id = next
	}
}

// Room returns the canonical room for id, or nil for an unknown ID.
func (s *Store) Room(id RoomID) *Room {
	return s.rooms[s.Resolve(id)]
}

// Start returns the starting room's ID, or NoRoom before bootstrap.
func (s *Store) Start() RoomID {
	return s.start
}

// Rooms returns all canonical rooms in creation order.
func (s *Store) Rooms() []*Room {
	out := make([]*Room, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.rooms[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// CompleteRooms returns the canonical rooms with all six door labels known.
func (s *Store) CompleteRooms() []*Room {
	var out []*Room
	for _, r := range s.Rooms() {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of canonical rooms.
func (s *Store) Len() int {
	return len(s.rooms)
}

// FindOrCreate locates the candidate room reached by path, observed with the
// given label. Resolution is replay-first:
//
//  1. a path seen before maps to the same room it mapped to then
//  2. an unseen path is traced door by door through recorded destinations;
//     a full trace lands on an existing room and the path becomes an alias
//  3. otherwise a fresh candidate is created
//
// A label disagreeing with the resolved room is a contradiction: the same
// path cannot reach two differently-labeled rooms.
func (s *Store) FindOrCreate(path domain.Path, label domain.Label) (*Room, bool, error) {
	if id, ok := s.byPath[path.Key()]; ok {
		r := s.Room(id)
		if r.Label != label {
			return nil, false, fmt.Errorf("%w: path %q resolved to room %d with label %d, observed %d",
				domain.ErrContradiction, path.String(), r.ID, r.Label, label)
		}
		return r, false, nil
	}

	if r := s.trace(path); r != nil {
		if r.Label != label {
			return nil, false, fmt.Errorf("%w: path %q traced to room %d with label %d, observed %d",
				domain.ErrContradiction, path.String(), r.ID, r.Label, label)
		}
		s.alias(r, path)
		return r, false, nil
	}

	r := newRoom(s.nextID, label, path)
	s.nextID++
	s.rooms[r.ID] = r
	s.order = append(s.order, r.ID)
	s.byPath[path.Key()] = r.ID
	if len(path) == 0 {
		s.start = r.ID
		r.PathToRoot = domain.Path{}
	}
	return r, true, nil
}

// trace walks path from the start through recorded door destinations,
// returning the terminal room or nil when any hop is unresolved.
func (s *Store) trace(path domain.Path) *Room {
	if s.start == NoRoom {
		return nil
	}
	cur := s.Room(s.start)
	for _, d := range path {
		next, ok := cur.DoorRoom(d)
		if !ok {
			return nil
		}
		cur = s.Room(next)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (s *Store) alias(r *Room, path domain.Path) {
	r.addPath(path)
	s.byPath[path.Key()] = r.ID
}

// RecordDoor stores the label observed behind door d of room id. A conflict
// with an earlier observation fails without mutating the room.
func (s *Store) RecordDoor(id RoomID, d domain.Door, label domain.Label) error {
	r := s.Room(id)
	if r == nil {
		return fmt.Errorf("record door: unknown room %d", id)
	}
	return r.recordDoorLabel(d, label)
}

// SetDoorRoom records the destination behind door d of room id, keeping an
// earlier identification when one exists.
func (s *Store) SetDoorRoom(id RoomID, d domain.Door, to RoomID) {
	if r := s.Room(id); r != nil {
		r.setDoorRoom(d, s.Resolve(to))
	}
}

// Merge folds loser into keeper after a Same verdict: witness paths union,
// unknown doors fill from the loser, and the loser's ID forwards to the
// keeper. Conflicting door labels mean the verdict was wrong, which is
// fatal.
func (s *Store) Merge(keeper, loser RoomID) error {
	keeper, loser = s.Resolve(keeper), s.Resolve(loser)
	if keeper == loser {
		return nil
	}
	k, l := s.rooms[keeper], s.rooms[loser]
	if k == nil || l == nil {
		return fmt.Errorf("merge: unknown room %d or %d", keeper, loser)
	}
	if k.Label != l.Label {
		return fmt.Errorf("%w: merging rooms %d and %d with labels %d and %d",
			domain.ErrContradiction, keeper, loser, k.Label, l.Label)
	}
	for d := 0; d < domain.DoorCount; d++ {
		if l.doorLabels[d] == unknown {
			continue
		}
		if k.doorLabels[d] != unknown && k.doorLabels[d] != l.doorLabels[d] {
			return fmt.Errorf("%w: rooms %d and %d disagree on door %d (%d vs %d)",
				domain.ErrContradiction, keeper, loser, d, k.doorLabels[d], l.doorLabels[d])
		}
	}

	for d := 0; d < domain.DoorCount; d++ {
		if k.doorLabels[d] == unknown {
			k.doorLabels[d] = l.doorLabels[d]
		}
		if k.doorRooms[d] == NoRoom {
			k.doorRooms[d] = l.doorRooms[d]
		}
		if k.reverse[d] == unknown {
			k.reverse[d] = l.reverse[d]
		}
	}
	for _, p := range l.paths {
		s.alias(k, p)
	}
	if k.Parent == NoRoom {
		k.Parent, k.ParentDoor = l.Parent, l.ParentDoor
	}
	if k.PathToRoot == nil {
		k.PathToRoot = l.PathToRoot
	}
	if k.Disambig == unknown {
		k.Disambig = l.Disambig
	}

	delete(s.rooms, loser)
	s.forward[loser] = keeper
	if s.start == loser {
		s.start = keeper
	}
	// redirect any door destination still naming the loser
	for _, r := range s.rooms {
		for d := 0; d < domain.DoorCount; d++ {
			if r.doorRooms[d] == loser {
				r.doorRooms[d] = keeper
			}
		}
		if r.Parent == loser {
			r.Parent = keeper
		}
	}
	return nil
}
