package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/domain"
)

func openRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "librarium.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSessionLifecycle(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	s, err := repo.CreateSession(ctx, "primus", 6)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	loaded, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "primus", loaded.Problem)
	assert.Equal(t, 6, loaded.RoomCount)

	_, err = repo.GetSession(ctx, "no-such-session")
	assert.ErrorContains(t, err, "not found")

	_, err = repo.CreateSession(ctx, "secundus", 12)
	require.NoError(t, err)
	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestObservationLogRoundTrip(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	s, err := repo.CreateSession(ctx, "primus", 3)
	require.NoError(t, err)

	plan, err := domain.ParsePlan("0[2]15")
	require.NoError(t, err)
	want := []domain.Observation{
		{Plan: domain.MovePlan(domain.Path{0, 1}), Raw: []domain.Label{0, 1, 2}},
		{Plan: plan, Raw: []domain.Label{0, 1, 2, 3, 0}},
	}

	rec := repo.Recorder(s.ID)
	for _, o := range want {
		require.NoError(t, rec.Record(ctx, o))
	}

	got, err := repo.Observations(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].Plan.String(), got[i].Plan.String())
		assert.Equal(t, want[i].Raw, got[i].Raw)
	}

	// logs are scoped per session
	other, err := repo.CreateSession(ctx, "secundus", 3)
	require.NoError(t, err)
	empty, err := repo.Observations(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
