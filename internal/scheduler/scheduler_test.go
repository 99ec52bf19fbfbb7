package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/logidash/internal/config"
	"github.com/mamadbah2/logidash/internal/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingGenerator struct {
	calls chan time.Time
	err   error
}

func (g *countingGenerator) GenerateDailyReport(_ context.Context, at time.Time) (models.OperationsReport, error) {
	g.calls <- at
	return models.OperationsReport{}, g.err
}

func TestSchedulerRunsJob(t *testing.T) {
	gen := &countingGenerator{calls: make(chan time.Time, 4)}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "@every 1s", Timezone: "UTC"}, gen, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case at := <-gen.calls:
		assert.Equal(t, "UTC", at.Location().String())
	case <-time.After(3 * time.Second):
		t.Fatal("report job did not run")
	}
}

func TestSchedulerRejectsBadInput(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "Mars/Olympus"}, &countingGenerator{}, nil)
	assert.Error(t, err)

	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "not a schedule", Timezone: "UTC"}, &countingGenerator{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestSchedulerJobFailureIsLogged(t *testing.T) {
	gen := &countingGenerator{calls: make(chan time.Time, 1), err: errors.New("store down")}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"}, gen, nil)
	require.NoError(t, err)

	s.runDailyReport()
	assert.Len(t, gen.calls, 1)
}
