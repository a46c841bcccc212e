package engine

import (
	"fmt"
	"sort"

	"librarium/internal/domain"
	"librarium/internal/store"
)

// assemble emits the final bidirectional connection table. Every door's
// destination must resolve to a canonical room; reverse doors come from
// backlink data where recorded, and any remaining pairing is derived only
// where it is forced or observationally neutral (parallel edges between the
// same pair of rooms are interchangeable to every possible probe). A count
// mismatch between the two sides of an edge bundle is a hard error.
func (e *Engine) assemble() (*domain.SolutionMap, error) {
	if !e.reconstructed() {
		return nil, fmt.Errorf("%w: %d complete of %d target rooms, %d candidates",
			domain.ErrIncomplete, len(e.store.CompleteRooms()), e.cfg.RoomCount, e.store.Len())
	}

	rooms, ids, err := e.canonicalRooms()
	if err != nil {
		return nil, err
	}
	dest, err := e.destinations(rooms, ids)
	if err != nil {
		return nil, err
	}

	matched, err := e.pairDoors(rooms, dest, false)
	if err != nil {
		return nil, err
	}

	m := e.document(rooms, ids, matched)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("assembled map invalid: %w", err)
	}
	return m, nil
}

// canonicalRooms returns the complete canonical rooms indexed by absolute
// ID, plus the RoomID to absolute ID mapping.
func (e *Engine) canonicalRooms() ([]*store.Room, map[store.RoomID]int, error) {
	ids := e.store.AbsoluteIDs()
	rooms := make([]*store.Room, len(ids))
	for _, r := range e.store.CompleteRooms() {
		rooms[ids[r.ID]] = r
	}
	start := e.store.Start()
	if start == store.NoRoom {
		return nil, nil, fmt.Errorf("%w: store has no starting room", domain.ErrIncomplete)
	}
	return rooms, ids, nil
}

// destinations resolves each (room, door) to the absolute ID behind it.
func (e *Engine) destinations(rooms []*store.Room, ids map[store.RoomID]int) ([][]int, error) {
	dest := make([][]int, len(rooms))
	for i, r := range rooms {
		dest[i] = make([]int, domain.DoorCount)
		for _, d := range domain.Doors() {
			to, ok := r.DoorRoom(d)
			if !ok {
				return nil, fmt.Errorf("%w: room %d door %d has no destination",
					domain.ErrIncomplete, r.ID, d)
			}
			idx, ok := ids[e.store.Resolve(to)]
			if !ok {
				return nil, fmt.Errorf("%w: room %d door %d leads to non-canonical room %d",
					domain.ErrIncomplete, r.ID, d, to)
			}
			dest[i][d] = idx
		}
	}
	return dest, nil
}

// pairDoors builds the reverse-door matching. For each unordered room pair,
// the doors pointing each way are matched, recorded backlinks first, the
// rest positionally. In lenient mode unmatched doors are collected and
// cross-paired at the end instead of failing.
func (e *Engine) pairDoors(rooms []*store.Room, dest [][]int, lenient bool) ([][]domain.DoorRef, error) {
	n := len(rooms)
	matched := make([][]domain.DoorRef, n)
	for i := range matched {
		matched[i] = make([]domain.DoorRef, domain.DoorCount)
		for d := range matched[i] {
			matched[i][d] = domain.DoorRef{Room: -1}
		}
	}
	var leftovers []domain.DoorRef

	doorsTo := func(from, to int) []domain.Door {
		var out []domain.Door
		for _, d := range domain.Doors() {
			if dest[from][d] == to {
				out = append(out, d)
			}
		}
		return out
	}
	pair := func(a, b domain.DoorRef) {
		matched[a.Room][a.Door] = b
		matched[b.Room][b.Door] = a
	}

	for i := 0; i < n; i++ {
		// doors of i looping back to i pair among themselves
		self := doorsTo(i, i)
		used := make(map[domain.Door]bool)
		for _, a := range self {
			if used[a] {
				continue
			}
			b, ok := rooms[i].ReverseDoor(a)
			if ok && !used[b] && dest[i][b] == i {
				used[a], used[b] = true, true
				pair(domain.DoorRef{Room: i, Door: a}, domain.DoorRef{Room: i, Door: b})
				continue
			}
			used[a] = true
			pair(domain.DoorRef{Room: i, Door: a}, domain.DoorRef{Room: i, Door: a})
		}

		for j := i + 1; j < n; j++ {
			fwd, back := doorsTo(i, j), doorsTo(j, i)
			if len(fwd) != len(back) && !lenient {
				return nil, fmt.Errorf("%w: %d doors from room %d to room %d but %d back",
					domain.ErrContradiction, len(fwd), i, j, len(back))
			}
			usedB := make(map[domain.Door]bool)
			var unpaired []domain.Door
			for _, a := range fwd {
				b, ok := rooms[i].ReverseDoor(a)
				if ok && !usedB[b] && dest[j][b] == i {
					usedB[b] = true
					pair(domain.DoorRef{Room: i, Door: a}, domain.DoorRef{Room: j, Door: b})
					continue
				}
				unpaired = append(unpaired, a)
			}
			var free []domain.Door
			for _, b := range back {
				if !usedB[b] {
					free = append(free, b)
				}
			}
			for len(unpaired) > 0 && len(free) > 0 {
				pair(domain.DoorRef{Room: i, Door: unpaired[0]}, domain.DoorRef{Room: j, Door: free[0]})
				unpaired, free = unpaired[1:], free[1:]
			}
			for _, a := range unpaired {
				leftovers = append(leftovers, domain.DoorRef{Room: i, Door: a})
			}
			for _, b := range free {
				leftovers = append(leftovers, domain.DoorRef{Room: j, Door: b})
			}
		}
	}

	if len(leftovers) > 0 {
		if !lenient {
			return nil, fmt.Errorf("%w: %d half-edges left unpaired",
				domain.ErrContradiction, len(leftovers))
		}
		sort.Slice(leftovers, func(a, b int) bool {
			if leftovers[a].Room != leftovers[b].Room {
				return leftovers[a].Room < leftovers[b].Room
			}
			return leftovers[a].Door < leftovers[b].Door
		})
		for len(leftovers) >= 2 {
			pair(leftovers[0], leftovers[1])
			leftovers = leftovers[2:]
		}
		if len(leftovers) == 1 {
			pair(leftovers[0], leftovers[0])
		}
	}
	return matched, nil
}

func (e *Engine) document(rooms []*store.Room, ids map[store.RoomID]int, matched [][]domain.DoorRef) *domain.SolutionMap {
	m := &domain.SolutionMap{
		Rooms:        make([]domain.Label, len(rooms)),
		StartingRoom: ids[e.store.Start()],
	}
	for i, r := range rooms {
		m.Rooms[i] = r.Label
	}
	for i := range rooms {
		for _, d := range domain.Doors() {
			m.Connections = append(m.Connections, domain.Connection{
				From: domain.DoorRef{Room: i, Door: d},
				To:   matched[i][d],
			})
		}
	}
	return m
}
