package domain

import "fmt"

// DoorRef addresses one half-edge: a specific door of a specific room,
// rooms identified by their index into SolutionMap.Rooms.
type DoorRef struct {
	Room int  `json:"room" yaml:"room"`
	Door Door `json:"door" yaml:"door"`
}

// Connection records one half-edge and its resolved reverse half-edge.
type Connection struct {
	From DoorRef `json:"from" yaml:"from"`
	To   DoorRef `json:"to" yaml:"to"`
}

// SolutionMap is the final bidirectional connection table: the only
// persisted artifact the engine must produce. It also serves as the fixture
// format for the simulated oracle, since it fully describes a graph.
type SolutionMap struct {
	Rooms        []Label      `json:"rooms" yaml:"rooms"`
	StartingRoom int          `json:"startingRoom" yaml:"startingRoom"`
	Connections  []Connection `json:"connections" yaml:"connections"`
}

// RoomCount returns the number of rooms in the map.
func (m *SolutionMap) RoomCount() int {
	return len(m.Rooms)
}

// Validate checks the structural invariants of the document:
//
//   - every label and door in range, room indices in range
//   - exactly DoorCount half-edges per room, each (room,door) pair
//     appearing exactly once as a "from"
//   - bidirectionality: connection (a,da)->(b,db) implies (b,db)->(a,da)
func (m *SolutionMap) Validate() error {
	n := len(m.Rooms)
	if n == 0 {
		return fmt.Errorf("solution has no rooms")
	}
	for i, l := range m.Rooms {
		if !l.Valid() {
			return fmt.Errorf("room %d: invalid label %d", i, l)
		}
	}
	if m.StartingRoom < 0 || m.StartingRoom >= n {
		return fmt.Errorf("starting room %d out of range [0,%d)", m.StartingRoom, n)
	}
	if len(m.Connections) != n*DoorCount {
		return fmt.Errorf("expected %d half-edges, got %d", n*DoorCount, len(m.Connections))
	}

	// from[room][door] = reverse half-edge, set at most once
	type rev struct {
		to  DoorRef
		set bool
	}
	from := make([][]rev, n)
	for i := range from {
		from[i] = make([]rev, DoorCount)
	}
	for _, c := range m.Connections {
		for _, ref := range []DoorRef{c.From, c.To} {
			if ref.Room < 0 || ref.Room >= n {
				return fmt.Errorf("connection references room %d out of range", ref.Room)
			}
			if !ref.Door.Valid() {
				return fmt.Errorf("connection references invalid door %d", ref.Door)
			}
		}
		slot := &from[c.From.Room][c.From.Door]
		if slot.set {
			return fmt.Errorf("room %d door %d appears twice as a from", c.From.Room, c.From.Door)
		}
		slot.to = c.To
		slot.set = true
	}
	for room := 0; room < n; room++ {
		for door := 0; door < DoorCount; door++ {
			slot := from[room][door]
			if !slot.set {
				return fmt.Errorf("room %d door %d has no connection", room, door)
			}
			back := from[slot.to.Room][slot.to.Door]
			if !back.set || back.to.Room != room || back.to.Door != Door(door) {
				return fmt.Errorf("edge (%d,%d)->(%d,%d) has no matching reverse",
					room, door, slot.to.Room, slot.to.Door)
			}
		}
	}
	return nil
}

// Next returns the destination room behind each door of each room, derived
// from the connection table. Fails if the table is not valid.
func (m *SolutionMap) Next() ([][]int, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	next := make([][]int, len(m.Rooms))
	for i := range next {
		next[i] = make([]int, DoorCount)
		for d := range next[i] {
			next[i][d] = -1
		}
	}
	for _, c := range m.Connections {
		next[c.From.Room][c.From.Door] = c.To.Room
	}
	return next, nil
}

// Equivalent reports whether two maps describe indistinguishable graphs: no
// probe sequence can tell them apart. This is label-preserving bisimulation
// from the two starting rooms, which is exactly the observational identity
// the oracle exposes (node relabeling is invisible to probes).
func Equivalent(a, b *SolutionMap) (bool, error) {
	nextA, err := a.Next()
	if err != nil {
		return false, fmt.Errorf("first map: %w", err)
	}
	nextB, err := b.Next()
	if err != nil {
		return false, fmt.Errorf("second map: %w", err)
	}

	type pair struct{ a, b int }
	seen := make(map[pair]bool)
	queue := []pair{{a.StartingRoom, b.StartingRoom}}
	seen[queue[0]] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if a.Rooms[p.a] != b.Rooms[p.b] {
			return false, nil
		}
		for d := 0; d < DoorCount; d++ {
			np := pair{nextA[p.a][d], nextB[p.b][d]}
			if !seen[np] {
				seen[np] = true
				queue = append(queue, np)
			}
		}
	}
	return true, nil
}
