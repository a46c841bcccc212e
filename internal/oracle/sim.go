package oracle

import (
	"context"
	"fmt"
	"sync"

	"librarium/internal/domain"
)

// Sim is an in-process oracle backed by known maps. It reproduces the
// remote service's semantics exactly: label edits are visible to later ops
// of the same plan and revert before the next plan, and each batch charges
// one plus the number of plans.
type Sim struct {
	mu       sync.Mutex
	problems map[string]*domain.SolutionMap

	active     *domain.SolutionMap
	next       [][]int
	queryCount int
}

// NewSim creates a simulator exposing the given named problems.
func NewSim(problems map[string]*domain.SolutionMap) *Sim {
	s := &Sim{problems: make(map[string]*domain.SolutionMap)}
	for name, m := range problems {
		s.problems[name] = m
	}
	return s
}

// NewSimFor creates a simulator preselected on a single map, for tests that
// have no use for problem names.
func NewSimFor(m *domain.SolutionMap) (*Sim, error) {
	s := NewSim(map[string]*domain.SolutionMap{"fixture": m})
	if err := s.Select(context.Background(), "fixture"); err != nil {
		return nil, err
	}
	return s, nil
}

// QueryCount returns the cumulative cost charged so far.
func (s *Sim) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryCount
}

// Select activates the named problem and resets the query counter.
func (s *Sim) Select(_ context.Context, problem string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.problems[problem]
	if !ok {
		return fmt.Errorf("unknown problem %q", problem)
	}
	next, err := m.Next()
	if err != nil {
		return fmt.Errorf("problem %q: %w", problem, err)
	}
	s.active = m
	s.next = next
	s.queryCount = 0
	return nil
}

// Probe executes each plan against the active map.
func (s *Sim) Probe(_ context.Context, plans []domain.Plan) (*ProbeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, fmt.Errorf("no problem selected")
	}
	results := make([][]domain.Label, len(plans))
	for i, plan := range plans {
		results[i] = s.run(plan)
	}
	s.queryCount += 1 + len(plans)
	return &ProbeResult{Results: results, QueryCount: s.queryCount}, nil
}

// run executes one plan on a private copy of the labels, so its edits
// cannot leak into sibling plans.
func (s *Sim) run(plan domain.Plan) []domain.Label {
	labels := make([]domain.Label, len(s.active.Rooms))
	copy(labels, s.active.Rooms)

	cur := s.active.StartingRoom
	out := make([]domain.Label, 0, len(plan)+1)
	out = append(out, labels[cur])
	for _, op := range plan {
		switch op.Kind {
		case domain.OpMove:
			cur = s.next[cur][op.Door]
			out = append(out, labels[cur])
		case domain.OpEdit:
			labels[cur] = op.Label
			out = append(out, op.Label)
		}
	}
	return out
}

// Submit accepts any map that is observationally identical to the active
// one: probes cannot distinguish relabeled or unrolled isomorphic graphs,
// so neither does the check.
func (s *Sim) Submit(_ context.Context, m *domain.SolutionMap) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false, fmt.Errorf("no problem selected")
	}
	ok, err := domain.Equivalent(s.active, m)
	if err != nil {
		return false, err
	}
	return ok, nil
}

var _ Client = (*Sim)(nil)
var _ Client = (*HTTPClient)(nil)
