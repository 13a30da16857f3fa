package cli

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

type fakeSettings struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	saved       map[string]string
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Validate(_ *domain.AppSettings) error { return f.validateErr }

func (f *fakeSettings) Set(key, raw string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = raw
	return nil
}

func (f *fakeSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

type fakeNotification struct {
	got    driving.NotifyRequest
	result *driving.NotifyResult
	err    error
}

func (f *fakeNotification) Send(_ context.Context, req driving.NotifyRequest) (*driving.NotifyResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeExport struct {
	gotExport   driving.ExportRequest
	gotDownload driving.DownloadRequest
	result      *driving.ExportResult
	download    *driving.Download
}

func (f *fakeExport) ExportToSheet(_ context.Context, req driving.ExportRequest) (*driving.ExportResult, error) {
	f.gotExport = req
	return f.result, nil
}

func (f *fakeExport) DownloadExcel(_ context.Context, req driving.DownloadRequest) (*driving.Download, error) {
	f.gotDownload = req
	return f.download, nil
}

type fakeHistory struct {
	entries   []domain.HistoryEntry
	scenarios []string
	pruned    int
	prunedAt  int
}

func (f *fakeHistory) SentIDs(context.Context, string, int) (domain.IDSet, error) {
	return domain.NewIDSet(), nil
}

func (f *fakeHistory) IDsToExclude(context.Context, string, []domain.Record, int) (domain.IDSet, error) {
	return domain.NewIDSet(), nil
}

func (f *fakeHistory) LogSend(
	context.Context, string, []domain.RecordID, string, string, map[domain.RecordID]string,
) error {
	return nil
}

func (f *fakeHistory) Prune(_ context.Context, days int) (int, error) {
	f.prunedAt = days
	return f.pruned, nil
}

func (f *fakeHistory) Entries(context.Context, string) ([]domain.HistoryEntry, error) {
	return f.entries, nil
}

func (f *fakeHistory) Scenarios(context.Context) ([]string, error) {
	return f.scenarios, nil
}

type fakeScripts struct{}

func (fakeScripts) Run(_ context.Context, name string, out io.Writer) error {
	_, err := io.WriteString(out, "running "+name+"\n")
	return err
}

func (fakeScripts) Names() []string { return []string{"vacuum"} }

func sampleEntry() domain.HistoryEntry {
	return domain.HistoryEntry{
		Date:       time.Date(2026, time.October, 1, 9, 30, 0, 0, time.UTC),
		Recipient:  "kam@example.com",
		Subject:    "New requests",
		RequestIDs: []domain.RecordID{"1", "2"},
	}
}
