package engine

import (
	"go.uber.org/zap"

	"librarium/internal/domain"
	"librarium/internal/store"
)

// repair is the explicitly opt-in best-effort pass: it builds a
// structurally valid map from whatever complete rooms exist, pairing any
// half-edges the primary assembler could not resolve against each other.
// The result is submittable but carries no correctness guarantee; it never
// runs unless AllowRepair is set.
func (e *Engine) repair() *domain.SolutionMap {
	complete := e.store.CompleteRooms()
	if len(complete) == 0 {
		return nil
	}
	ids := e.store.AbsoluteIDs()
	rooms := make([]*store.Room, len(ids))
	for _, r := range complete {
		rooms[ids[r.ID]] = r
	}

	// destinations, unresolved doors rerouted to self
	dest := make([][]int, len(rooms))
	for i, r := range rooms {
		dest[i] = make([]int, domain.DoorCount)
		for _, d := range domain.Doors() {
			dest[i][d] = i
			if to, ok := r.DoorRoom(d); ok {
				if idx, ok := ids[e.store.Resolve(to)]; ok {
					dest[i][d] = idx
				}
			}
		}
	}

	matched, err := e.pairDoors(rooms, dest, true)
	if err != nil {
		return nil
	}
	m := e.document(rooms, ids, matched)
	if startIdx, ok := ids[e.store.Start()]; ok {
		m.StartingRoom = startIdx
	} else {
		m.StartingRoom = 0
	}
	if err := m.Validate(); err != nil {
		e.logger.Warn("repair produced an invalid map", zap.Error(err))
		return nil
	}
	e.logger.Warn("emitting repaired map",
		zap.Int("rooms", len(rooms)),
		zap.Int("target", e.cfg.RoomCount))
	return m
}
