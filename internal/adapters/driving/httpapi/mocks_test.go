package httpapi

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

// MockNotificationService is a mock implementation of driving.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Send(ctx context.Context, req driving.NotifyRequest) (*driving.NotifyResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.NotifyResult), args.Error(1)
}

// MockExportService is a mock implementation of driving.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportToSheet(ctx context.Context, req driving.ExportRequest) (*driving.ExportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.ExportResult), args.Error(1)
}

func (m *MockExportService) DownloadExcel(ctx context.Context, req driving.DownloadRequest) (*driving.Download, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.Download), args.Error(1)
}

// MockProvisioningService is a mock implementation of driving.ProvisioningService.
type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) Provision(ctx context.Context) (*driving.ProvisionResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.ProvisionResult), args.Error(1)
}

// MockHistoryService is a mock implementation of driving.HistoryService.
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) SentIDs(ctx context.Context, scenario string, maxAgeDays int) (domain.IDSet, error) {
	args := m.Called(ctx, scenario, maxAgeDays)
	return args.Get(0).(domain.IDSet), args.Error(1)
}

func (m *MockHistoryService) IDsToExclude(
	ctx context.Context,
	scenario string,
	records []domain.Record,
	maxAgeDays int,
) (domain.IDSet, error) {
	args := m.Called(ctx, scenario, records, maxAgeDays)
	return args.Get(0).(domain.IDSet), args.Error(1)
}

func (m *MockHistoryService) LogSend(
	ctx context.Context,
	scenario string,
	ids []domain.RecordID,
	recipient, subject string,
	changeDates map[domain.RecordID]string,
) error {
	args := m.Called(ctx, scenario, ids, recipient, subject, changeDates)
	return args.Error(0)
}

func (m *MockHistoryService) Prune(ctx context.Context, days int) (int, error) {
	args := m.Called(ctx, days)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryService) Entries(ctx context.Context, scenario string) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, scenario)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryService) Scenarios(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// fakeScripts writes canned output for known names.
type fakeScripts struct {
	output map[string]string
	err    error
}

func (f *fakeScripts) Run(_ context.Context, name string, out io.Writer) error {
	_, _ = io.WriteString(out, f.output[name])
	return f.err
}

func (f *fakeScripts) Names() []string {
	names := make([]string, 0, len(f.output))
	for name := range f.output {
		names = append(names, name)
	}
	return names
}
