package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/domain"
)

func mustFind(t *testing.T, s *Store, path string, label domain.Label) *Room {
	t.Helper()
	p, err := domain.ParsePath(path)
	require.NoError(t, err)
	r, _, err := s.FindOrCreate(p, label)
	require.NoError(t, err)
	return r
}

func TestFindOrCreateReplaysKnownPaths(t *testing.T) {
	s := NewStore()
	root := mustFind(t, s, "", 0)
	assert.Equal(t, root.ID, s.Start())
	require.NotNil(t, root.PathToRoot)
	assert.Empty(t, root.PathToRoot)

	a := mustFind(t, s, "0", 1)
	again := mustFind(t, s, "0", 1)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, 2, s.Len())

	_, _, err := s.FindOrCreate(domain.Path{0}, 2)
	assert.ErrorIs(t, err, domain.ErrContradiction)
}

func TestFindOrCreateTracesDoorPointers(t *testing.T) {
	s := NewStore()
	root := mustFind(t, s, "", 0)
	a := mustFind(t, s, "3", 1)
	s.SetDoorRoom(root.ID, 3, a.ID)
	s.SetDoorRoom(a.ID, 2, root.ID)

	// 32 traces back to the root, so no new candidate appears
	back := mustFind(t, s, "32", 0)
	assert.Equal(t, root.ID, back.ID)
	assert.Equal(t, 2, s.Len())

	// a traced path with the wrong label is fatal
	_, _, err := s.FindOrCreate(domain.Path{3, 2}, 3)
	assert.ErrorIs(t, err, domain.ErrContradiction)
}

func TestFindOrCreateDoesNotFuseIdenticalPeripherals(t *testing.T) {
	// A star: six incomplete candidates behind the hub all share label 1.
	// None is complete, so an untraceable path must open a new candidate
	// rather than aliasing to an arbitrary twin.
	s := NewStore()
	root := mustFind(t, s, "", 0)
	for d := 0; d < domain.DoorCount; d++ {
		r := mustFind(t, s, string(rune('0'+d)), 1)
		require.NotEqual(t, root.ID, r.ID)
	}
	assert.Equal(t, 7, s.Len())
}

func TestFindOrCreateNeverFusesOnLabelAlone(t *testing.T) {
	// An untraceable path spawns a fresh candidate even when a complete room
	// with the same label exists; only an identity probe may merge them.
	s := NewStore()
	mustFind(t, s, "", 0)
	a := mustFind(t, s, "1", 2)
	for d := 0; d < domain.DoorCount; d++ {
		require.NoError(t, s.RecordDoor(a.ID, domain.Door(d), 0))
	}
	require.True(t, s.Room(a.ID).Complete())

	got := mustFind(t, s, "51", 2)
	assert.NotEqual(t, a.ID, got.ID)
}

func TestRecordDoorConflictLeavesRoomUntouched(t *testing.T) {
	s := NewStore()
	r := mustFind(t, s, "", 0)
	require.NoError(t, s.RecordDoor(r.ID, 4, 3))

	err := s.RecordDoor(r.ID, 4, 1)
	assert.ErrorIs(t, err, domain.ErrContradiction)
	l, ok := s.Room(r.ID).DoorLabel(4)
	require.True(t, ok)
	assert.Equal(t, domain.Label(3), l)

	// re-recording the same value is a no-op
	assert.NoError(t, s.RecordDoor(r.ID, 4, 3))
}

func TestMergeForwardsLoserID(t *testing.T) {
	s := NewStore()
	root := mustFind(t, s, "", 0)
	a := mustFind(t, s, "0", 1)
	b := mustFind(t, s, "1", 1)
	require.NoError(t, s.RecordDoor(a.ID, 0, 2))
	require.NoError(t, s.RecordDoor(b.ID, 5, 3))
	s.SetDoorRoom(root.ID, 1, b.ID)

	require.NoError(t, s.Merge(a.ID, b.ID))

	// the loser's ID resolves to the keeper and its knowledge is folded in
	assert.Equal(t, a.ID, s.Resolve(b.ID))
	merged := s.Room(b.ID)
	require.NotNil(t, merged)
	assert.Equal(t, a.ID, merged.ID)

	l0, ok := merged.DoorLabel(0)
	require.True(t, ok)
	assert.Equal(t, domain.Label(2), l0)
	l5, ok := merged.DoorLabel(5)
	require.True(t, ok)
	assert.Equal(t, domain.Label(3), l5)

	// door pointers naming the loser are redirected
	to, ok := s.Room(root.ID).DoorRoom(1)
	require.True(t, ok)
	assert.Equal(t, a.ID, to)

	// both witness paths now resolve to the keeper
	assert.Equal(t, a.ID, mustFind(t, s, "1", 1).ID)
	assert.Equal(t, 2, s.Len())
}

func TestMergeConflictIsFatal(t *testing.T) {
	s := NewStore()
	mustFind(t, s, "", 0)
	a := mustFind(t, s, "0", 1)
	b := mustFind(t, s, "1", 1)
	require.NoError(t, s.RecordDoor(a.ID, 2, 0))
	require.NoError(t, s.RecordDoor(b.ID, 2, 3))

	assert.ErrorIs(t, s.Merge(a.ID, b.ID), domain.ErrContradiction)

	c := mustFind(t, s, "2", 2)
	assert.ErrorIs(t, s.Merge(a.ID, c.ID), domain.ErrContradiction)
}

func TestFingerprints(t *testing.T) {
	s := NewStore()
	r := mustFind(t, s, "", 2)
	assert.Equal(t, "2-??????", r.BaseFingerprint())

	for d := 0; d < domain.DoorCount; d++ {
		require.NoError(t, s.RecordDoor(r.ID, domain.Door(d), domain.Label(d%4)))
	}
	assert.Equal(t, "2-012301", r.BaseFingerprint())
	assert.Equal(t, "2-012301", r.Fingerprint())

	r.Disambig = 1
	assert.Equal(t, "2-012301-1", r.Fingerprint())
	assert.Equal(t, "2-012301", r.BaseFingerprint())
}

func TestGroupByFingerprintAndAbsoluteIDs(t *testing.T) {
	s := NewStore()
	root := mustFind(t, s, "", 0)
	a := mustFind(t, s, "0", 1)
	b := mustFind(t, s, "1", 1)
	for d := 0; d < domain.DoorCount; d++ {
		require.NoError(t, s.RecordDoor(root.ID, domain.Door(d), 1))
		require.NoError(t, s.RecordDoor(a.ID, domain.Door(d), 0))
		require.NoError(t, s.RecordDoor(b.ID, domain.Door(d), 0))
	}

	groups := s.GroupByFingerprint()
	require.Len(t, groups, 2)
	assert.Len(t, groups["0-111111"], 1)
	assert.Len(t, groups["1-000000"], 2)

	assert.Equal(t, 0, NextDisambig(groups["1-000000"]))
	a.Disambig = 0
	assert.Equal(t, 1, NextDisambig(groups["1-000000"]))
	b.Disambig = 1

	ids := s.AbsoluteIDs()
	require.Len(t, ids, 3)
	// ranked by fingerprint: 0-111111 < 1-000000-0 < 1-000000-1
	assert.Equal(t, 0, ids[root.ID])
	assert.Equal(t, 1, ids[a.ID])
	assert.Equal(t, 2, ids[b.ID])
}
