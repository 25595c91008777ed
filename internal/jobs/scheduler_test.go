package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"legalizador/internal/config"
	"legalizador/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockInvoiceMaintainer struct {
	mock.Mock
}

func (m *MockInvoiceMaintainer) RefreshSummary(ctx context.Context) (*models.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Summary), args.Error(1)
}

func (m *MockInvoiceMaintainer) ExpireOverdue(ctx context.Context, afterDays int) (int64, error) {
	args := m.Called(ctx, afterDays)
	return args.Get(0).(int64), args.Error(1)
}

func TestNewScheduler_RegistersConfiguredJobs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.JobsConfig
		jobs []string
	}{
		{"summary only", config.JobsConfig{SummaryInterval: time.Minute}, []string{SummaryJob}},
		{"with expiry", config.JobsConfig{SummaryInterval: time.Minute, ExpireOverdue: true, ExpireAfterDays: 30}, []string{SummaryJob, ExpiryJob}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js, err := NewScheduler(new(MockInvoiceMaintainer), tt.cfg, zap.NewNop())
			require.NoError(t, err)
			defer js.Stop()

			assert.ElementsMatch(t, tt.jobs, js.JobNames())
		})
	}
}

func TestScheduler_RefreshesSummaryOnStart(t *testing.T) {
	invoices := new(MockInvoiceMaintainer)
	refreshed := make(chan struct{}, 1)
	invoices.On("RefreshSummary", mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case refreshed <- struct{}{}:
			default:
			}
		}).
		Return(&models.Summary{Total: 4, CriticalPending: 1}, nil)

	js, err := NewScheduler(invoices, config.JobsConfig{SummaryInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("summary refresh did not run")
	}
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	js, err := NewScheduler(new(MockInvoiceMaintainer), config.JobsConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	assert.EqualError(t, js.RunNow(ExpiryJob), "job overdue-expiry is not registered")
}

func TestExpireOverdue(t *testing.T) {
	invoices := new(MockInvoiceMaintainer)
	invoices.On("ExpireOverdue", mock.Anything, 30).Return(int64(3), nil).Once()
	invoices.On("ExpireOverdue", mock.Anything, 30).Return(int64(0), errors.New("lock timeout")).Once()

	js, err := NewScheduler(invoices, config.JobsConfig{ExpireOverdue: true, ExpireAfterDays: 30}, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	assert.NoError(t, js.expireOverdue())
	assert.ErrorContains(t, js.expireOverdue(), "lock timeout")
	invoices.AssertExpectations(t)
}

func TestRefreshSummary_WrapsError(t *testing.T) {
	invoices := new(MockInvoiceMaintainer)
	invoices.On("RefreshSummary", mock.Anything).Return(nil, errors.New("redis down"))

	js, err := NewScheduler(invoices, config.JobsConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	assert.EqualError(t, js.refreshSummary(), "refresh summary: redis down")
}
