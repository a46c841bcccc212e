// Package oracle provides access to the exploration service: the remote
// HTTP endpoint used during live runs and an in-process simulator backed by
// a known map for tests and replays.
package oracle

import (
	"context"

	"librarium/internal/domain"
)

// ProbeResult carries the label sequences for one batch of plans plus the
// service's running probe cost for the session.
type ProbeResult struct {
	// Results holds one label sequence per submitted plan, aligned by index.
	Results [][]domain.Label

	// QueryCount is the cumulative cost charged so far: each batch costs one
	// plus the number of plans in it.
	QueryCount int
}

// Observations pairs each plan with its label sequence.
func (pr *ProbeResult) Observations(plans []domain.Plan) []domain.Observation {
	obs := make([]domain.Observation, 0, len(plans))
	for i, p := range plans {
		var raw []domain.Label
		if i < len(pr.Results) {
			raw = pr.Results[i]
		}
		obs = append(obs, domain.Observation{Plan: p, Raw: raw})
	}
	return obs
}

// Client is the oracle surface the engine drives. All label edits made by a
// plan are scoped to that plan: the graph reverts before the next plan runs.
type Client interface {
	// Select binds the session to a named problem instance.
	Select(ctx context.Context, problem string) error

	// Probe executes a batch of plans against the current instance.
	Probe(ctx context.Context, plans []domain.Plan) (*ProbeResult, error)

	// Submit proposes a reconstructed map and reports whether it matches.
	Submit(ctx context.Context, m *domain.SolutionMap) (bool, error)
}
