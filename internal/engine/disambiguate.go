package engine

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"librarium/internal/domain"
	"librarium/internal/store"
)

// disambiguate separates complete rooms that share a base fingerprint.
// Within each collision group, candidates are tested incrementally against
// the set of confirmed-distinct representatives: the first Same verdict
// merges, a Different verdict from every representative assigns the next
// disambiguation ID. Verdicts are permanent; rooms holding an ID are never
// re-tested.
func (e *Engine) disambiguate(ctx context.Context) error {
	for key, group := range e.store.GroupByFingerprint() {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		var reps []*store.Room
		var pending []*store.Room
		for _, r := range group {
			if r.Disambiguated() {
				reps = append(reps, r)
			} else {
				pending = append(pending, r)
			}
		}
		if len(reps) == 0 && len(pending) > 0 {
			// the first instance of a fingerprint is distinct by definition
			first := pending[0]
			first.Disambig = store.NextDisambig(group)
			reps, pending = []*store.Room{first}, pending[1:]
			e.logger.Debug("fingerprint representative",
				zap.String("fingerprint", key),
				zap.Int("room", int(first.ID)))
		}

		for _, m := range pending {
			if e.store.Resolve(m.ID) != m.ID {
				continue
			}
			verdict, err := e.testAgainstReps(ctx, reps, m)
			if err != nil {
				if errors.Is(err, domain.ErrInconclusive) {
					e.logger.Debug("disambiguation deferred",
						zap.Int("room", int(m.ID)), zap.Error(err))
					continue
				}
				return err
			}
			if verdict != nil {
				if err := e.merge(verdict, m); err != nil {
					return err
				}
				continue
			}
			m.Disambig = store.NextDisambig(reps)
			reps = append(reps, m)
			e.logger.Info("room disambiguated",
				zap.String("fingerprint", key),
				zap.Int("room", int(m.ID)),
				zap.Int("id", m.Disambig))
			e.bus.Publish(Event{Type: EventDisambiguated, Payload: m.ID})
		}
	}
	return nil
}

// testAgainstReps probes m against each representative. It returns the
// matching representative on a Same verdict, nil when every verdict was
// Different, and ErrInconclusive when any single probe could not be built.
func (e *Engine) testAgainstReps(ctx context.Context, reps []*store.Room, m *store.Room) (*store.Room, error) {
	for _, rep := range reps {
		same, err := e.sameRoom(ctx, rep, m)
		if err != nil {
			return nil, err
		}
		if same {
			return rep, nil
		}
	}
	return nil, nil
}
