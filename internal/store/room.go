package store

import (
	"fmt"

	"librarium/internal/domain"
)

// RoomID identifies a candidate room within a Store. IDs are stable for the
// lifetime of the store; merged-away rooms keep their ID and forward to the
// surviving representative.
type RoomID int

// NoRoom is the zero-value sentinel for an absent room reference.
const NoRoom RoomID = -1

const unknown = -1

// Room is one candidate room hypothesis. Door knowledge accumulates
// monotonically: a door label or destination, once recorded, never changes,
// and a recorded conflict is a fatal contradiction rather than an update.
type Room struct {
	ID    RoomID
	Label domain.Label

	// Disambig separates rooms that share a base fingerprint. It is assigned
	// exactly once by an identity probe and never revisited.
	Disambig int

	// Parent and ParentDoor identify the completed room this candidate was
	// first discovered behind. PathToRoot is the door sequence leading back
	// to the starting room; nil means not yet determined, empty means this
	// is the starting room itself.
	Parent     RoomID
	ParentDoor domain.Door
	PathToRoot domain.Path

	doorLabels [domain.DoorCount]int
	doorRooms  [domain.DoorCount]RoomID
	reverse    [domain.DoorCount]int

	paths    map[string]domain.Path
	shortest domain.Path
}

func newRoom(id RoomID, label domain.Label, witness domain.Path) *Room {
	r := &Room{
		ID:       id,
		Label:    label,
		Disambig: unknown,
		Parent:   NoRoom,
		paths:    make(map[string]domain.Path),
	}
	for d := range r.doorLabels {
		r.doorLabels[d] = unknown
		r.doorRooms[d] = NoRoom
		r.reverse[d] = unknown
	}
	r.addPath(witness)
	return r
}

// DoorLabel returns the observed label behind the door, if known.
func (r *Room) DoorLabel(d domain.Door) (domain.Label, bool) {
	if r.doorLabels[d] == unknown {
		return 0, false
	}
	return domain.Label(r.doorLabels[d]), true
}

// DoorRoom returns the candidate room behind the door, if identified.
func (r *Room) DoorRoom(d domain.Door) (RoomID, bool) {
	if r.doorRooms[d] == NoRoom {
		return NoRoom, false
	}
	return r.doorRooms[d], true
}

// ReverseDoor returns which door of the neighbor behind d leads back here,
// if determined.
func (r *Room) ReverseDoor(d domain.Door) (domain.Door, bool) {
	if r.reverse[d] == unknown {
		return 0, false
	}
	return domain.Door(r.reverse[d]), true
}

// recordDoorLabel stores the label seen behind door d. A differing label for
// an already-known door leaves the room untouched and fails.
func (r *Room) recordDoorLabel(d domain.Door, l domain.Label) error {
	if r.doorLabels[d] != unknown {
		if domain.Label(r.doorLabels[d]) != l {
			return fmt.Errorf("%w: room %d door %d already %d, observed %d",
				domain.ErrContradiction, r.ID, d, r.doorLabels[d], l)
		}
		return nil
	}
	r.doorLabels[d] = int(l)
	return nil
}

// setDoorRoom records the destination behind door d, keeping the first
// identification when one already exists.
func (r *Room) setDoorRoom(d domain.Door, to RoomID) {
	if r.doorRooms[d] == NoRoom {
		r.doorRooms[d] = to
	}
}

// SetReverse records the return door of the neighbor behind d.
func (r *Room) SetReverse(d, back domain.Door) {
	if r.reverse[d] == unknown {
		r.reverse[d] = int(back)
	}
}

// Disambiguated reports whether an identity probe has assigned this room a
// disambiguation ID.
func (r *Room) Disambiguated() bool {
	return r.Disambig != unknown
}

// Complete reports whether all six door labels are known.
func (r *Room) Complete() bool {
	for _, l := range r.doorLabels {
		if l == unknown {
			return false
		}
	}
	return true
}

// UnknownDoors lists the doors whose labels are still unobserved.
func (r *Room) UnknownDoors() []domain.Door {
	var out []domain.Door
	for d, l := range r.doorLabels {
		if l == unknown {
			out = append(out, domain.Door(d))
		}
	}
	return out
}

// Path returns the shortest known witness path from the start to this room.
func (r *Room) Path() domain.Path {
	return r.shortest
}

// PathCount returns the number of recorded witness paths.
func (r *Room) PathCount() int {
	return len(r.paths)
}

// Paths returns every recorded witness path.
func (r *Room) Paths() []domain.Path {
	out := make([]domain.Path, 0, len(r.paths))
	for _, p := range r.paths {
		out = append(out, p)
	}
	return out
}

func (r *Room) addPath(p domain.Path) {
	key := p.Key()
	if _, ok := r.paths[key]; ok {
		return
	}
	r.paths[key] = p.Clone()
	if r.shortest == nil || len(p) < len(r.shortest) {
		r.shortest = r.paths[key]
	}
}
