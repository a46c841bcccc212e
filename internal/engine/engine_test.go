package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/domain"
	"librarium/internal/oracle"
)

func conn(fromRoom int, fromDoor domain.Door, toRoom int, toDoor domain.Door) domain.Connection {
	return domain.Connection{
		From: domain.DoorRef{Room: fromRoom, Door: fromDoor},
		To:   domain.DoorRef{Room: toRoom, Door: toDoor},
	}
}

// selfLoopFixture is a single room whose doors all loop back onto it.
func selfLoopFixture() *domain.SolutionMap {
	m := &domain.SolutionMap{Rooms: []domain.Label{0}, StartingRoom: 0}
	for _, d := range domain.Doors() {
		m.Connections = append(m.Connections, conn(0, d, 0, d))
	}
	return m
}

// ringFixture joins rooms in a cycle: door 0 forward, door 1 back, the
// remaining doors self-loop.
func ringFixture(labels ...domain.Label) *domain.SolutionMap {
	n := len(labels)
	m := &domain.SolutionMap{Rooms: labels, StartingRoom: 0}
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		m.Connections = append(m.Connections,
			conn(i, 0, next, 1),
			conn(next, 1, i, 0))
		for d := domain.Door(2); d < domain.DoorCount; d++ {
			m.Connections = append(m.Connections, conn(i, d, i, d))
		}
	}
	return m
}

// crossedPairFixture is two rooms with the same label where every door of
// each room leads to the other. Both rooms have identical fingerprints, so
// only identity probes can tell them apart.
func crossedPairFixture() *domain.SolutionMap {
	m := &domain.SolutionMap{Rooms: []domain.Label{0, 0}, StartingRoom: 0}
	for _, d := range domain.Doors() {
		m.Connections = append(m.Connections, conn(0, d, 1, d), conn(1, d, 0, d))
	}
	return m
}

// starFixture is a hub with six identically-labeled peripheral rooms: door
// i of the hub reaches peripheral i, whose door 0 leads back and whose
// remaining doors self-loop. All six peripherals share one fingerprint.
func starFixture() *domain.SolutionMap {
	m := &domain.SolutionMap{
		Rooms:        []domain.Label{0, 1, 1, 1, 1, 1, 1},
		StartingRoom: 0,
	}
	for _, d := range domain.Doors() {
		p := int(d) + 1
		m.Connections = append(m.Connections, conn(0, d, p, 0), conn(p, 0, 0, d))
		for dd := domain.Door(1); dd < domain.DoorCount; dd++ {
			m.Connections = append(m.Connections, conn(p, dd, p, dd))
		}
	}
	return m
}

func solve(t *testing.T, fixture *domain.SolutionMap, opts ...Option) (*Engine, *Result) {
	t.Helper()
	require.NoError(t, fixture.Validate())
	sim, err := oracle.NewSimFor(fixture)
	require.NoError(t, err)
	e := New(sim, Config{RoomCount: fixture.RoomCount()}, opts...)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	return e, res
}

func requireEquivalent(t *testing.T, fixture, got *domain.SolutionMap) {
	t.Helper()
	require.NotNil(t, got)
	require.NoError(t, got.Validate())
	ok, err := domain.Equivalent(fixture, got)
	require.NoError(t, err)
	assert.True(t, ok, "reconstructed map is distinguishable from the fixture")
}

func TestRunSelfLoopRoom(t *testing.T) {
	fixture := selfLoopFixture()
	e, res := solve(t, fixture)

	assert.True(t, res.Solved)
	assert.Zero(t, res.UnresolvedCandidates)
	assert.Equal(t, 1, e.Store().Len())
	requireEquivalent(t, fixture, res.Solution)
}

func TestRunRing(t *testing.T) {
	fixture := ringFixture(0, 1, 2)
	e, res := solve(t, fixture)

	assert.True(t, res.Solved)
	assert.Equal(t, 3, e.Store().Len())
	requireEquivalent(t, fixture, res.Solution)
}

func TestRunCrossedPairNeedsDisambiguation(t *testing.T) {
	fixture := crossedPairFixture()
	e, res := solve(t, fixture)

	assert.True(t, res.Solved)
	requireEquivalent(t, fixture, res.Solution)

	// both rooms share the base fingerprint and were kept apart by
	// explicitly assigned disambiguation ids
	groups := e.Store().GroupByFingerprint()
	require.Len(t, groups, 1)
	for _, group := range groups {
		require.Len(t, group, 2)
		ids := map[int]bool{}
		for _, r := range group {
			require.True(t, r.Disambiguated())
			ids[r.Disambig] = true
		}
		assert.Len(t, ids, 2)
	}
}

func TestRunStarDoesNotCollapsePeripherals(t *testing.T) {
	fixture := starFixture()
	e, res := solve(t, fixture)

	assert.True(t, res.Solved)
	assert.Equal(t, 7, e.Store().Len())
	requireEquivalent(t, fixture, res.Solution)

	ids := map[int]bool{}
	for _, r := range e.Store().CompleteRooms() {
		if r.Label == 1 {
			require.True(t, r.Disambiguated())
			ids[r.Disambig] = true
		}
	}
	assert.Len(t, ids, 6, "each peripheral room needs its own disambiguation id")
}

// scriptedClient replays canned responses, one per Probe call.
type scriptedClient struct {
	responses [][][]domain.Label
	calls     int
}

func (c *scriptedClient) Select(context.Context, string) error {
	return nil
}

func (c *scriptedClient) Probe(_ context.Context, plans []domain.Plan) (*oracle.ProbeResult, error) {
	if c.calls >= len(c.responses) {
		return nil, fmt.Errorf("no scripted response for call %d", c.calls)
	}
	res := c.responses[c.calls]
	c.calls++
	return &oracle.ProbeResult{Results: res, QueryCount: c.calls}, nil
}

func (c *scriptedClient) Submit(context.Context, *domain.SolutionMap) (bool, error) {
	return false, nil
}

func TestRunContradictionIsFatal(t *testing.T) {
	// bootstrap reports label 1 behind door 0, the next batch reports
	// label 2 at the same position
	client := &scriptedClient{responses: [][][]domain.Label{
		{{0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}},
		{{0, 1, 2}, {0, 2, 0}, {0, 1, 1}, {0, 1, 1}, {0, 1, 1}, {0, 1, 1}},
	}}
	e := New(client, Config{RoomCount: 2})
	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContradiction)
}

func TestRunBudgetExhaustion(t *testing.T) {
	fixture := ringFixture(0, 1, 2)
	sim, err := oracle.NewSimFor(fixture)
	require.NoError(t, err)

	e := New(sim, Config{RoomCount: 3, MaxIterations: 1})
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Solved)
	assert.Nil(t, res.Solution)
	assert.Equal(t, 1, res.Iterations)
	assert.Positive(t, res.UnresolvedCandidates)
}

func TestRunRepairEmitsValidMap(t *testing.T) {
	fixture := ringFixture(0, 1, 2)
	sim, err := oracle.NewSimFor(fixture)
	require.NoError(t, err)

	e := New(sim, Config{RoomCount: 3, MaxIterations: 1, AllowRepair: true})
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Solved)
	require.True(t, res.Repaired)
	require.NotNil(t, res.Solution)
	assert.NoError(t, res.Solution.Validate())
}

// memoryRecorder keeps observations in order of arrival.
type memoryRecorder struct {
	obs []domain.Observation
}

func (m *memoryRecorder) Record(_ context.Context, o domain.Observation) error {
	m.obs = append(m.obs, o)
	return nil
}

func TestSeedRebuildsStoreFromRecording(t *testing.T) {
	rec := &memoryRecorder{}
	_, res := solve(t, ringFixture(0, 1, 2), WithRecorder(rec))
	require.True(t, res.Solved)
	require.NotEmpty(t, rec.obs)

	fresh := New(nil, Config{RoomCount: 3})
	require.NoError(t, fresh.Seed(rec.obs))
	assert.Positive(t, fresh.Store().Len())

	start := fresh.Store().Room(fresh.Store().Start())
	require.NotNil(t, start)
	assert.True(t, start.Complete())

	// seeding twice must not invent rooms
	before := fresh.Store().Len()
	require.NoError(t, fresh.Seed(rec.obs))
	assert.Equal(t, before, fresh.Store().Len())
}

func TestRunPublishesEvents(t *testing.T) {
	fixture := selfLoopFixture()
	sim, err := oracle.NewSimFor(fixture)
	require.NoError(t, err)

	e := New(sim, Config{RoomCount: 1})
	events := make(chan Event, 128)
	e.Events().Subscribe(events)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Solved)
	close(events)

	seen := map[EventType]bool{}
	for ev := range events {
		seen[ev.Type] = true
	}
	assert.True(t, seen[EventBatchProbed])
	assert.True(t, seen[EventRoomsMerged])
	assert.True(t, seen[EventSolved])
}
