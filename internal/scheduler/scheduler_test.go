package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/service"
)

type fakeLifecycle struct {
	calls    []string
	sweepErr error
}

func (f *fakeLifecycle) Today() models.Date {
	d, _ := models.ParseDate("2024-03-15")
	return d
}

func (f *fakeLifecycle) SweepStatuses(ctx context.Context, today models.Date) (service.SweepResult, error) {
	f.calls = append(f.calls, "sweep "+today.String())
	return service.SweepResult{DueNow: 1}, f.sweepErr
}

func (f *fakeLifecycle) SendReminders(ctx context.Context, today models.Date) (int, error) {
	f.calls = append(f.calls, "remind "+today.String())
	return 1, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunOnceSweepsThenReminds(t *testing.T) {
	f := &fakeLifecycle{}
	s, err := New("@daily", f, quietLogger())
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"sweep 2024-03-15", "remind 2024-03-15"}, f.calls)
}

func TestRunOnceStopsOnSweepFailure(t *testing.T) {
	f := &fakeLifecycle{sweepErr: errors.New("store down")}
	s, err := New("0 6 * * *", f, quietLogger())
	require.NoError(t, err)

	assert.Error(t, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"sweep 2024-03-15"}, f.calls)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every day", &fakeLifecycle{}, quietLogger())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := New("@hourly", &fakeLifecycle{}, quietLogger())
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
