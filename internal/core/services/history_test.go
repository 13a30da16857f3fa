package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqbridge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

var historyNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestHistoryService(store *memory.HistoryStore) *HistoryService {
	svc := NewHistoryService(store, domain.DefaultIDField, "changeDateTime")
	svc.now = func() time.Time { return historyNow }
	return svc
}

func record(id int64, change any) domain.Record {
	return domain.Record{domain.DefaultIDField: id, "changeDateTime": change}
}

func TestHistoryService_LoggedUnchangedRecordIsExcluded(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	changed := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	records := []domain.Record{record(42, changed)}

	require.NoError(t, svc.LogSend(ctx, "X", []domain.RecordID{"42"}, "a@example.com", "subj", svc.ChangeDates(records)))

	excluded, err := svc.IDsToExclude(ctx, "X", records, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("42"))
}

func TestHistoryService_ChangedRecordIsEligibleAgain(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	changed := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.LogSend(ctx, "X", []domain.RecordID{"42"}, "a@example.com", "subj",
		svc.ChangeDates([]domain.Record{record(42, changed)})))

	for _, newer := range []time.Time{changed.Add(time.Hour), changed.Add(-time.Hour)} {
		excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(42, newer)}, 0)
		require.NoError(t, err)
		assert.False(t, excluded.Has("42"), "timestamp %v should make record eligible", newer)
	}
}

func TestHistoryService_LegacyEntryComparesAgainstSendDate(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	d1 := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	d2 := d1.Add(48 * time.Hour)
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{Date: d1, RequestIDs: []domain.RecordID{"42"}}))

	excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(42, d1)}, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("42"))

	excluded, err = svc.IDsToExclude(ctx, "X", []domain.Record{record(42, d2)}, 0)
	require.NoError(t, err)
	assert.False(t, excluded.Has("42"))
}

func TestHistoryService_LegacyEntryUsesRecordZone(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	svc.SetRecordZone(time.FixedZone("MSK", 3*60*60))
	ctx := context.Background()
	// Sent at 09:00 UTC, i.e. 12:00 on the database's wall clock.
	sent := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{Date: sent, RequestIDs: []domain.RecordID{"42"}}))

	before := domain.ToSerial(time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC))
	excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(42, before)}, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("42"))

	after := domain.ToSerial(time.Date(2026, 10, 1, 13, 0, 0, 0, time.UTC))
	excluded, err = svc.IDsToExclude(ctx, "X", []domain.Record{record(42, after)}, 0)
	require.NoError(t, err)
	assert.False(t, excluded.Has("42"))
}

func TestHistoryService_SerialChangeDatesMatch(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	// Extraction hands dates over as spreadsheet serials.
	serial := domain.ToSerial(time.Date(2026, 9, 30, 17, 45, 0, 0, time.UTC))
	records := []domain.Record{record(7, serial)}

	require.NoError(t, svc.LogSend(ctx, "X", []domain.RecordID{"7"}, "r", "s", svc.ChangeDates(records)))

	excluded, err := svc.IDsToExclude(ctx, "X", records, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("7"))
}

func TestHistoryService_SubSecondDifferenceIgnored(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	changed := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{
		Date:                   historyNow,
		RequestIDs:             []domain.RecordID{"1"},
		ChangeDatesByRequestID: map[domain.RecordID]string{"1": "2026-10-01T09:00:00.000Z"},
	}))

	excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(1, changed.Add(400*time.Millisecond))}, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("1"))
}

func TestHistoryService_RetentionWindow(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	changed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{
		Date:                   historyNow.AddDate(0, 0, -100),
		RequestIDs:             []domain.RecordID{"5"},
		ChangeDatesByRequestID: map[domain.RecordID]string{"5": changed.Format(time.RFC3339)},
	}))

	sent, err := svc.SentIDs(ctx, "X", 90)
	require.NoError(t, err)
	assert.False(t, sent.Has("5"))

	sent, err = svc.SentIDs(ctx, "X", 0)
	require.NoError(t, err)
	assert.True(t, sent.Has("5"))

	excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(5, changed)}, 90)
	require.NoError(t, err)
	assert.False(t, excluded.Has("5"))
}

func TestHistoryService_LatestEntryWins(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	first := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{
		Date:                   second.Add(time.Hour),
		RequestIDs:             []domain.RecordID{"9"},
		ChangeDatesByRequestID: map[domain.RecordID]string{"9": second.Format(time.RFC3339)},
	}))
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{
		Date:                   first.Add(time.Hour),
		RequestIDs:             []domain.RecordID{"9"},
		ChangeDatesByRequestID: map[domain.RecordID]string{"9": first.Format(time.RFC3339)},
	}))

	excluded, err := svc.IDsToExclude(ctx, "X", []domain.Record{record(9, second)}, 0)
	require.NoError(t, err)
	assert.True(t, excluded.Has("9"))
}

func TestHistoryService_ScenariosAreIndependent(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	records := []domain.Record{record(3, "2026-10-01 10:00:00")}
	require.NoError(t, svc.LogSend(ctx, "A", []domain.RecordID{"3"}, "r", "s", svc.ChangeDates(records)))

	excluded, err := svc.IDsToExclude(ctx, "B", records, 0)
	require.NoError(t, err)
	assert.Empty(t, excluded)
}

func TestHistoryService_UnreadableLogTreatedAsEmpty(t *testing.T) {
	store := memory.NewHistoryStore()
	store.Err = errors.New("corrupt")
	svc := newTestHistoryService(store)

	excluded, err := svc.IDsToExclude(context.Background(), "X", []domain.Record{record(1, "x")}, 0)

	require.NoError(t, err)
	assert.Empty(t, excluded)
}

func TestHistoryService_LogSend(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()

	assert.ErrorIs(t, svc.LogSend(ctx, "", []domain.RecordID{"1"}, "", "", nil), domain.ErrInvalidInput)
	require.NoError(t, svc.LogSend(ctx, "X", nil, "", "", nil))

	require.NoError(t, svc.LogSend(ctx, "X", []domain.RecordID{"1", "2"}, "kam@example.com", "New", map[domain.RecordID]string{"1": "a"}))
	entries, err := svc.Entries(ctx, "X")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, historyNow, entries[0].Date)
	assert.Equal(t, "kam@example.com", entries[0].Recipient)
	assert.Equal(t, []domain.RecordID{"1", "2"}, entries[0].RequestIDs)
}

func TestHistoryService_Prune(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{Date: historyNow.AddDate(0, 0, -31)}))
	require.NoError(t, store.Append(ctx, "X", domain.HistoryEntry{Date: historyNow.AddDate(0, 0, -29)}))

	_, err := svc.Prune(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	removed, err := svc.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestHistoryService_ChangeDates(t *testing.T) {
	svc := newTestHistoryService(memory.NewHistoryStore())

	dates := svc.ChangeDates([]domain.Record{
		record(1, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		record(2, "garbage"),
		{domain.DefaultIDField: int64(3)},
		{"changeDateTime": "2026-01-01"},
	})

	assert.Equal(t, map[domain.RecordID]string{
		"1": "2026-01-02T03:04:05Z",
		"2": "garbage",
	}, dates)
}

func TestHistoryService_Scenarios(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := newTestHistoryService(store)
	ctx := context.Background()

	require.NoError(t, svc.LogSend(ctx, "translation", []domain.RecordID{"1"}, "a@example.com", "s", nil))
	require.NoError(t, svc.LogSend(ctx, "kam_notification", []domain.RecordID{"2"}, "b@example.com", "s", nil))

	scenarios, err := svc.Scenarios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kam_notification", "translation"}, scenarios)
}
