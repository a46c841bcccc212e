package oracle

import (
	"context"
	"fmt"

	"librarium/internal/domain"
)

// Replay answers probes from a recorded observation log instead of a live
// service. The engine is deterministic given identical answers, so running
// it against a Replay client reproduces the original session plan for plan.
type Replay struct {
	answers    map[string][]domain.Label
	queryCount int
}

var _ Client = (*Replay)(nil)

// NewReplay builds a replay client from a session's observations. Later
// recordings of the same plan win, matching how the log was appended.
func NewReplay(obs []domain.Observation) *Replay {
	r := &Replay{answers: make(map[string][]domain.Label, len(obs))}
	for _, o := range obs {
		r.answers[o.Plan.String()] = o.Raw
	}
	return r
}

// Select is a no-op: the recording is already bound to one instance.
func (r *Replay) Select(_ context.Context, _ string) error {
	return nil
}

// Probe serves each plan from the recording. A plan absent from the log
// means the recording does not cover this run and the replay must stop.
func (r *Replay) Probe(_ context.Context, plans []domain.Plan) (*ProbeResult, error) {
	results := make([][]domain.Label, 0, len(plans))
	for _, p := range plans {
		raw, ok := r.answers[p.String()]
		if !ok {
			return nil, fmt.Errorf("plan %q not in recording", p.String())
		}
		results = append(results, raw)
	}
	r.queryCount += 1 + len(plans)
	return &ProbeResult{Results: results, QueryCount: r.queryCount}, nil
}

// Submit refuses: a recording cannot judge a guess.
func (r *Replay) Submit(_ context.Context, _ *domain.SolutionMap) (bool, error) {
	return false, fmt.Errorf("cannot submit a guess against a recording")
}
