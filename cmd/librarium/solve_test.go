package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"librarium/internal/codec"
	"librarium/internal/domain"
	"librarium/internal/engine"
	"librarium/internal/oracle"
)

func selfLoopMap() *domain.SolutionMap {
	m := &domain.SolutionMap{Rooms: []domain.Label{1}, StartingRoom: 0}
	for _, d := range domain.Doors() {
		m.Connections = append(m.Connections, domain.Connection{
			From: domain.DoorRef{Room: 0, Door: d},
			To:   domain.DoorRef{Room: 0, Door: d},
		})
	}
	return m
}

// submitRecorder fakes the oracle surface report needs for a guess.
type submitRecorder struct {
	submitted *domain.SolutionMap
	correct   bool
}

func (c *submitRecorder) Select(context.Context, string) error { return nil }

func (c *submitRecorder) Probe(context.Context, []domain.Plan) (*oracle.ProbeResult, error) {
	return &oracle.ProbeResult{}, nil
}

func (c *submitRecorder) Submit(_ context.Context, m *domain.SolutionMap) (bool, error) {
	c.submitted = m
	return c.correct, nil
}

func setupReport(t *testing.T) {
	t.Helper()
	prevLogger, prevSubmit := logger, flagSubmit
	logger, flagSubmit = zap.NewNop(), false
	t.Cleanup(func() { logger, flagSubmit = prevLogger, prevSubmit })
}

func TestReportWritesRepairedMap(t *testing.T) {
	setupReport(t)
	out := filepath.Join(t.TempDir(), "solution.json")
	res := &engine.Result{Solution: selfLoopMap(), Repaired: true}

	require.NoError(t, report(context.Background(), &submitRecorder{}, res, out))

	got, err := codec.LoadMap(out)
	require.NoError(t, err)
	assert.Equal(t, res.Solution, got)
}

func TestReportSubmitsRepairedMap(t *testing.T) {
	setupReport(t)
	flagSubmit = true
	client := &submitRecorder{correct: true}
	res := &engine.Result{Solution: selfLoopMap(), Repaired: true}

	require.NoError(t, report(context.Background(), client, res, ""))
	assert.Equal(t, res.Solution, client.submitted)
}

func TestReportRejectsUnsolvedRun(t *testing.T) {
	setupReport(t)
	out := filepath.Join(t.TempDir(), "solution.json")
	res := &engine.Result{UnresolvedCandidates: 3}

	err := report(context.Background(), &submitRecorder{}, res, out)
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no map file for a failed run")
}

func TestLoggingBusFlushDrainsBufferedEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus, flush := newLoggingBus(zap.New(core))

	bus.Publish(engine.Event{Type: engine.EventBatchProbed, Payload: 6})
	bus.Publish(engine.Event{Type: engine.EventRoomsMerged})
	bus.Publish(engine.Event{Type: engine.EventSolved})
	flush()

	require.Equal(t, 3, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "engine event", entry.Message)
	}
}
