package engine

import (
	"librarium/internal/domain"
)

// nextBatch produces the next probe batch by strict priority, first
// matching rule wins:
//
//  1. a complete room points at an incomplete destination: probe all six
//     of the destination's doors in one call
//  2. a complete room's door shows a label no complete room carries yet:
//     probe that single door
//  3. an incomplete room: probe its unknown doors
//  4. fallback: widen one step past a complete room
//
// Already-explored paths are skipped; a rule whose whole batch was already
// explored yields to the next rule. An empty store gets the bootstrap batch
// instead: all six doors from the empty path.
func (e *Engine) nextBatch() []domain.Path {
	if e.store.Len() == 0 {
		return e.bootstrap()
	}
	for _, rule := range []func() []domain.Path{
		e.blockedDestinations,
		e.missingLabels,
		e.partialRooms,
		e.widen,
	} {
		if batch := rule(); len(batch) > 0 {
			return batch
		}
	}
	return nil
}

// bootstrap seeds the store: one probe per door from the empty path.
func (e *Engine) bootstrap() []domain.Path {
	var batch []domain.Path
	for _, d := range domain.Doors() {
		batch = e.propose(batch, domain.Path{d})
	}
	return batch
}

func (e *Engine) blockedDestinations() []domain.Path {
	for _, r := range e.store.CompleteRooms() {
		for _, d := range domain.Doors() {
			to, ok := r.DoorRoom(d)
			if !ok {
				continue
			}
			dest := e.store.Room(to)
			if dest == nil || dest.Complete() {
				continue
			}
			var batch []domain.Path
			for _, dd := range domain.Doors() {
				batch = e.propose(batch, dest.Path().Extend(dd))
			}
			if len(batch) > 0 {
				return batch
			}
		}
	}
	return nil
}

func (e *Engine) missingLabels() []domain.Path {
	seen := make(map[domain.Label]bool)
	for _, r := range e.store.CompleteRooms() {
		seen[r.Label] = true
	}
	for _, r := range e.store.CompleteRooms() {
		for _, d := range domain.Doors() {
			l, ok := r.DoorLabel(d)
			if !ok || seen[l] {
				continue
			}
			if batch := e.propose(nil, r.Path().Extend(d)); len(batch) > 0 {
				return batch
			}
		}
	}
	return nil
}

func (e *Engine) partialRooms() []domain.Path {
	for _, r := range e.store.Rooms() {
		if r.Complete() {
			continue
		}
		var batch []domain.Path
		for _, d := range r.UnknownDoors() {
			batch = e.propose(batch, r.Path().Extend(d))
		}
		if len(batch) > 0 {
			return batch
		}
	}
	return nil
}

func (e *Engine) widen() []domain.Path {
	for _, r := range e.store.CompleteRooms() {
		for _, d := range domain.Doors() {
			var batch []domain.Path
			for _, dd := range domain.Doors() {
				batch = e.propose(batch, r.Path().Extend(d, dd))
			}
			if len(batch) > 0 {
				return batch
			}
		}
	}
	return nil
}

func (e *Engine) propose(batch []domain.Path, p domain.Path) []domain.Path {
	if e.explored[p.Key()] {
		return batch
	}
	return append(batch, p)
}
