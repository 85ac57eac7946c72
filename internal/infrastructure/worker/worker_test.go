package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

type fakeWorker struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
	mu       *sync.Mutex
}

func (w *fakeWorker) Name() string { return w.name }

func (w *fakeWorker) Start(ctx context.Context) error {
	w.record("start:" + w.name)
	return w.startErr
}

func (w *fakeWorker) Stop() error {
	w.record("stop:" + w.name)
	return w.stopErr
}

func (w *fakeWorker) record(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	*w.log = append(*w.log, s)
}

func TestWorkerManager_Lifecycle(t *testing.T) {
	var log []string
	var mu sync.Mutex
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", log: &log, mu: &mu})
	m.Register(&fakeWorker{name: "b", startErr: errors.New("bad"), log: &log, mu: &mu})
	m.Register(&fakeWorker{name: "c", log: &log, mu: &mu})
	assert.Equal(t, 3, m.GetWorkerCount())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}, log)

	// stopping twice is harmless
	assert.NoError(t, m.StopAll())
}

func TestWorkerManager_StopErrorsAreJoined(t *testing.T) {
	var log []string
	var mu sync.Mutex
	m := NewWorkerManager(zap.NewNop())
	stopErr := errors.New("stuck")
	m.Register(&fakeWorker{name: "a", stopErr: stopErr, log: &log, mu: &mu})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	assert.ErrorIs(t, err, stopErr)
}

func TestReportScheduler_Disabled(t *testing.T) {
	called := false
	s := NewReportScheduler(ReportSchedulerConfig{Hour: 18, Disabled: true},
		func(ctx context.Context, reportDate string) error {
			called = true
			return nil
		}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	st := s.Status()
	assert.False(t, st.Enabled)
	assert.False(t, st.Running)
	assert.True(t, st.NextRun.IsZero())
	require.NoError(t, s.Stop())
	assert.False(t, called)
}

func TestReportScheduler_NextRunAtConfiguredTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	s := NewReportScheduler(ReportSchedulerConfig{Hour: 18, Minute: 30, Location: loc},
		func(ctx context.Context, reportDate string) error { return nil }, zap.NewNop())

	assert.Equal(t, "30 18 * * *", s.Spec())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	st := s.Status()
	assert.True(t, st.Enabled)
	assert.True(t, st.Running)
	next := st.NextRun.In(loc)
	assert.Equal(t, 18, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(24*time.Hour+time.Minute)))

	assert.Error(t, s.Start(context.Background()))
}

func TestReportScheduler_RunNow(t *testing.T) {
	loc := time.FixedZone("UTC-10", -10*3600)
	var gotDate string
	var hadDeadline bool
	s := NewReportScheduler(ReportSchedulerConfig{Hour: 18, Location: loc, Timeout: time.Minute},
		func(ctx context.Context, reportDate string) error {
			gotDate = reportDate
			_, hadDeadline = ctx.Deadline()
			return nil
		}, zap.NewNop())

	require.NoError(t, s.RunNow(context.Background()))
	assert.Equal(t, time.Now().In(loc).Format("2006-01-02"), gotDate)
	assert.True(t, hadDeadline)

	st := s.Status()
	assert.Equal(t, 1, st.RunCount)
	assert.Equal(t, 0, st.FailCount)
	assert.False(t, st.LastRun.IsZero())
}

func TestReportScheduler_FailuresAreCounted(t *testing.T) {
	results := []error{
		fmt.Errorf("2024-05-01: %w", entity.ErrNoData),
		errors.New("smtp down"),
		nil,
	}
	i := 0
	s := NewReportScheduler(ReportSchedulerConfig{Location: time.UTC},
		func(ctx context.Context, reportDate string) error {
			err := results[i]
			i++
			return err
		}, zap.NewNop())

	assert.ErrorIs(t, s.RunNow(context.Background()), entity.ErrNoData)
	st := s.Status()
	assert.Equal(t, 0, st.FailCount)
	assert.Empty(t, st.LastError)

	assert.Error(t, s.RunNow(context.Background()))
	st = s.Status()
	assert.Equal(t, 1, st.FailCount)
	assert.Equal(t, "smtp down", st.LastError)

	assert.NoError(t, s.RunNow(context.Background()))
	st = s.Status()
	assert.Equal(t, 3, st.RunCount)
	assert.Equal(t, 1, st.FailCount)
	assert.Empty(t, st.LastError)
}
