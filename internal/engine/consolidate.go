package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"librarium/internal/domain"
	"librarium/internal/store"
)

// consolidate folds leftover incomplete candidates into the canonical
// rooms. It only runs once the store holds exactly the target number of
// complete, pairwise-distinct rooms: from then on every candidate must be
// one of them, so an incomplete room compatible with a single canonical
// room merges outright, and ambiguity between several is settled by
// identity probes. A candidate matching none of them means the model and
// the target room count cannot both be right.
func (e *Engine) consolidate(ctx context.Context) error {
	complete := e.store.CompleteRooms()
	if len(complete) != e.cfg.RoomCount || !e.ambiguitiesResolved() {
		return nil
	}

	for _, m := range e.store.Rooms() {
		if m.Complete() || e.store.Resolve(m.ID) != m.ID {
			continue
		}
		var compatible []*store.Room
		for _, r := range complete {
			if e.compatible(r, m) {
				compatible = append(compatible, r)
			}
		}
		switch len(compatible) {
		case 0:
			return fmt.Errorf("%w: candidate %d (label %d) matches no canonical room",
				domain.ErrContradiction, m.ID, m.Label)
		case 1:
			if err := e.merge(compatible[0], m); err != nil {
				return err
			}
		default:
			if err := e.identifyAmong(ctx, compatible, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) identifyAmong(ctx context.Context, compatible []*store.Room, m *store.Room) error {
	for _, r := range compatible {
		same, err := e.sameRoom(ctx, r, m)
		if err != nil {
			if errors.Is(err, domain.ErrInconclusive) {
				e.logger.Debug("consolidation deferred",
					zap.Int("room", int(m.ID)), zap.Error(err))
				return nil
			}
			return err
		}
		if same {
			return e.merge(r, m)
		}
	}
	return fmt.Errorf("%w: candidate %d is distinct from all %d canonical rooms",
		domain.ErrContradiction, m.ID, len(compatible))
}

// compatible reports whether everything known about candidate m agrees
// with canonical room r.
func (e *Engine) compatible(r, m *store.Room) bool {
	if r.Label != m.Label {
		return false
	}
	for _, d := range domain.Doors() {
		ml, ok := m.DoorLabel(d)
		if !ok {
			continue
		}
		if rl, _ := r.DoorLabel(d); rl != ml {
			return false
		}
	}
	return true
}
