// Package engine drives graph reconstruction: it schedules probe batches
// against an oracle, folds observations into the candidate store, resolves
// identity ambiguities and backlinks, and assembles the final map.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"librarium/internal/domain"
	"librarium/internal/oracle"
	"librarium/internal/store"
)

// Config bounds a reconstruction run.
type Config struct {
	// RoomCount is the number of rooms the instance is known to have.
	RoomCount int

	// MaxIterations caps scheduler iterations. Zero means the default.
	MaxIterations int

	// MaxQueries caps the oracle query budget. Zero means unlimited.
	MaxQueries int

	// AllowRepair enables the best-effort repair pass when the primary
	// assembler cannot produce a valid map.
	AllowRepair bool
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 200
	}
	return c
}

// Result is the outcome of a run. When Solved is false the solution is the
// best map reconstructed before the budget ran out, possibly nil.
type Result struct {
	Solution             *domain.SolutionMap
	Solved               bool
	Repaired             bool
	Iterations           int
	QueryCount           int
	UnresolvedCandidates int
}

// Recorder persists every observation as it arrives, so a run can later be
// replayed without touching the oracle.
type Recorder interface {
	Record(ctx context.Context, obs domain.Observation) error
}

// Engine owns the candidate store and the exploration loop. It is
// single-threaded: each iteration blocks on one oracle batch before
// deciding the next.
type Engine struct {
	client   oracle.Client
	cfg      Config
	logger   *zap.Logger
	bus      *EventBus
	recorder Recorder

	store      *store.Store
	explored   map[string]bool
	queryCount int
	iterations int
}

// Option adjusts an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRecorder attaches an observation recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithEventBus attaches an event bus for progress notifications.
func WithEventBus(bus *EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// New creates an engine for one reconstruction run against client.
func New(client oracle.Client, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		cfg:      cfg.withDefaults(),
		logger:   zap.NewNop(),
		bus:      NewEventBus(),
		store:    store.NewStore(),
		explored: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the candidate store, for inspection after a run.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Events exposes the engine's event bus.
func (e *Engine) Events() *EventBus {
	return e.bus
}

// Run explores until the store holds exactly the target number of canonical
// complete rooms, then assembles and returns the map. Contradictions and
// malformed responses abort the run; budget exhaustion yields an unsolved
// result without an error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return e.result(nil, false), err
		}
		if e.reconstructed() {
			m, err := e.assemble()
			if err == nil {
				e.logger.Info("reconstruction complete",
					zap.Int("rooms", e.cfg.RoomCount),
					zap.Int("iterations", e.iterations),
					zap.Int("query_count", e.queryCount))
				e.bus.Publish(Event{Type: EventSolved, Payload: m})
				return e.result(m, true), nil
			}
			if !e.cfg.AllowRepair {
				return e.result(nil, false), err
			}
			e.logger.Warn("assembly failed, repairing", zap.Error(err))
			return e.repaired()
		}
		if e.iterations >= e.cfg.MaxIterations {
			e.logger.Warn("iteration cap reached", zap.Int("iterations", e.iterations))
			break
		}
		if e.cfg.MaxQueries > 0 && e.queryCount >= e.cfg.MaxQueries {
			e.logger.Warn("query budget exhausted", zap.Int("query_count", e.queryCount))
			break
		}

		batch := e.nextBatch()
		if len(batch) == 0 {
			e.logger.Warn("no probes left to schedule",
				zap.Int("rooms", e.store.Len()))
			break
		}
		e.iterations++

		if err := e.probePaths(ctx, batch); err != nil {
			return e.result(nil, false), err
		}
		if err := e.disambiguate(ctx); err != nil {
			return e.result(nil, false), err
		}
		if err := e.resolveBacklinks(ctx); err != nil {
			return e.result(nil, false), err
		}
		if err := e.consolidate(ctx); err != nil {
			return e.result(nil, false), err
		}
	}

	e.bus.Publish(Event{Type: EventBudgetExhausted})
	if e.cfg.AllowRepair {
		return e.repaired()
	}
	return e.result(nil, false), nil
}

func (e *Engine) repaired() (*Result, error) {
	m := e.repair()
	res := e.result(m, false)
	res.Repaired = m != nil
	return res, nil
}

func (e *Engine) result(m *domain.SolutionMap, solved bool) *Result {
	unresolved := 0
	for _, r := range e.store.Rooms() {
		if !r.Complete() {
			unresolved++
		}
	}
	return &Result{
		Solution:             m,
		Solved:               solved,
		Iterations:           e.iterations,
		QueryCount:           e.queryCount,
		UnresolvedCandidates: unresolved,
	}
}

// reconstructed is the completion predicate: exactly the target number of
// complete canonical rooms, no incomplete stragglers, and every fingerprint
// collision resolved.
func (e *Engine) reconstructed() bool {
	complete := e.store.CompleteRooms()
	return len(complete) == e.cfg.RoomCount &&
		e.store.Len() == len(complete) &&
		e.ambiguitiesResolved()
}

func (e *Engine) ambiguitiesResolved() bool {
	for _, group := range e.store.GroupByFingerprint() {
		if len(group) < 2 {
			continue
		}
		for _, r := range group {
			if !r.Disambiguated() {
				return false
			}
		}
	}
	return true
}

// probe submits one batch and records every observation.
func (e *Engine) probe(ctx context.Context, plans []domain.Plan) ([]domain.Observation, error) {
	res, err := e.client.Probe(ctx, plans)
	if err != nil {
		return nil, err
	}
	e.queryCount = res.QueryCount
	obs := res.Observations(plans)
	if e.recorder != nil {
		for _, o := range obs {
			if err := e.recorder.Record(ctx, o); err != nil {
				return nil, fmt.Errorf("record observation: %w", err)
			}
		}
	}
	e.bus.Publish(Event{Type: EventBatchProbed, Payload: len(plans)})
	return obs, nil
}

func (e *Engine) probeOne(ctx context.Context, plan domain.Plan) (domain.Observation, error) {
	obs, err := e.probe(ctx, []domain.Plan{plan})
	if err != nil {
		return domain.Observation{}, err
	}
	return obs[0], nil
}

// probePaths explores the given unexplored paths as pure-move plans and
// folds the observations into the store.
func (e *Engine) probePaths(ctx context.Context, paths []domain.Path) error {
	plans := make([]domain.Plan, len(paths))
	for i, p := range paths {
		plans[i] = domain.MovePlan(p)
	}
	obs, err := e.probe(ctx, plans)
	if err != nil {
		return err
	}
	for _, o := range obs {
		if err := e.fold(o); err != nil {
			return err
		}
	}
	return nil
}

// fold integrates one pure-move observation: each prefix of the walked path
// resolves to a candidate, door labels and destinations are recorded along
// the way, and the full path is marked explored.
func (e *Engine) fold(obs domain.Observation) error {
	arrivals, _, err := obs.Split()
	if err != nil {
		return err
	}
	path := obs.Plan.Path()

	cur, _, err := e.store.FindOrCreate(domain.Path{}, arrivals[0])
	if err != nil {
		return err
	}
	for i, d := range path {
		next, created, err := e.store.FindOrCreate(path[:i+1], arrivals[i+1])
		if err != nil {
			return err
		}
		if created {
			next.Parent = cur.ID
			next.ParentDoor = d
		}
		if err := e.store.RecordDoor(cur.ID, d, arrivals[i+1]); err != nil {
			return err
		}
		e.store.SetDoorRoom(cur.ID, d, next.ID)
		cur = next
	}
	e.explored[path.Key()] = true
	return nil
}

// sameRoom runs the identity probe between rooms a and b: navigate to a,
// overwrite its label with a free value, then navigate to b and read the
// label there. Seeing the overwrite means a and b are one physical room.
// The route to b is a path suffix when b lies beyond a, otherwise a's path
// back to the start followed by b's witness path.
func (e *Engine) sameRoom(ctx context.Context, a, b *store.Room) (bool, error) {
	edit, err := domain.FreeLabel(a.Label, b.Label)
	if err != nil {
		return false, err
	}

	var plan domain.Plan
	if suffix, ok := b.Path().Suffix(a.Path()); ok {
		plan = domain.MovePlan(a.Path()).
			Append(domain.Edit(edit)).
			Append(domain.MovePlan(suffix)...)
	} else if a.PathToRoot != nil {
		plan = domain.MovePlan(a.Path()).
			Append(domain.Edit(edit)).
			Append(domain.MovePlan(a.PathToRoot)...).
			Append(domain.MovePlan(b.Path())...)
	} else {
		return false, fmt.Errorf("%w: no route from room %d to room %d",
			domain.ErrInconclusive, a.ID, b.ID)
	}

	obs, err := e.probeOne(ctx, plan)
	if err != nil {
		return false, err
	}
	final, err := obs.FinalLabel()
	if err != nil {
		return false, err
	}
	switch final {
	case edit:
		return true, nil
	case b.Label:
		return false, nil
	default:
		return false, fmt.Errorf("%w: identity probe %q saw %d, expected %d or %d",
			domain.ErrProtocolViolation, plan.String(), final, edit, b.Label)
	}
}

// merge folds loser into keeper, preferring the room with more witness
// paths as the survivor. Canonical standing wins over path count: a room
// holding a disambiguation ID, or one that is complete when the other is
// not, stays the keeper.
func (e *Engine) merge(keeper, loser *store.Room) error {
	if loser.PathCount() > keeper.PathCount() &&
		!keeper.Disambiguated() &&
		loser.Complete() == keeper.Complete() {
		keeper, loser = loser, keeper
	}
	e.logger.Debug("merging rooms",
		zap.Int("keeper", int(keeper.ID)),
		zap.Int("loser", int(loser.ID)))
	if err := e.store.Merge(keeper.ID, loser.ID); err != nil {
		return err
	}
	e.bus.Publish(Event{Type: EventRoomsMerged, Payload: [2]store.RoomID{keeper.ID, loser.ID}})
	return nil
}

// Seed folds previously recorded pure-move observations into the store
// without touching the oracle. Observations with edits are skipped; they
// were identity or backlink probes whose conclusions must be re-derived.
func (e *Engine) Seed(obs []domain.Observation) error {
	for _, o := range obs {
		if !o.Plan.PureMove() {
			continue
		}
		if err := e.fold(o); err != nil {
			return err
		}
	}
	return nil
}
