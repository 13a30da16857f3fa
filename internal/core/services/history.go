package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService decides which records were already notified.
//
// A record is eligible for (re-)notification when its id was never logged for
// the scenario within the retention window, or when its change timestamp no
// longer matches the one captured at send time. Entries written without
// per-id timestamps fall back to the send date: the record is eligible when it
// changed after it was sent.
type HistoryService struct {
	store       driven.HistoryStore
	idField     string
	changeField string
	zone        *time.Location
	now         func() time.Time
}

// NewHistoryService creates a history service reading ids from idField and
// change timestamps from changeField.
func NewHistoryService(store driven.HistoryStore, idField, changeField string) *HistoryService {
	if idField == "" {
		idField = domain.DefaultIDField
	}
	return &HistoryService{
		store:       store,
		idField:     idField,
		changeField: changeField,
		zone:        time.UTC,
		now:         time.Now,
	}
}

// SetRecordZone sets the zone of the wall-clock change timestamps in records.
// Legacy send dates are moved into it before comparison. The default is UTC.
func (s *HistoryService) SetRecordZone(loc *time.Location) {
	if loc != nil {
		s.zone = loc
	}
}

// loggedSend is the most recent send of one id.
type loggedSend struct {
	date   time.Time
	ts     time.Time
	raw    string
	legacy bool
	parsed bool
}

// SentIDs returns the ids logged for scenario within maxAgeDays.
func (s *HistoryService) SentIDs(ctx context.Context, scenario string, maxAgeDays int) (domain.IDSet, error) {
	sent := domain.NewIDSet()
	for id := range s.latestSends(ctx, scenario, maxAgeDays) {
		sent.Add(id)
	}
	return sent, nil
}

// IDsToExclude returns the ids of records that were already sent and have not
// changed since.
func (s *HistoryService) IDsToExclude(
	ctx context.Context,
	scenario string,
	records []domain.Record,
	maxAgeDays int,
) (domain.IDSet, error) {
	latest := s.latestSends(ctx, scenario, maxAgeDays)
	exclude := domain.NewIDSet()

	for _, r := range records {
		id := r.ID(s.idField)
		if id == "" {
			continue
		}
		sent, ok := latest[id]
		if !ok {
			continue
		}
		if !s.changedSince(r, sent) {
			exclude.Add(id)
		}
	}

	logger.Debug("history %s: %d of %d records already sent", scenario, len(exclude), len(records))
	return exclude, nil
}

// changedSince reports whether a record changed after it was logged.
func (s *HistoryService) changedSince(r domain.Record, sent loggedSend) bool {
	currentRaw := strings.TrimSpace(r.String(s.changeField))
	if sent.raw != "" && currentRaw == sent.raw {
		return false
	}

	current, ok := domain.ParseTimestamp(r[s.changeField])
	if !ok {
		// No usable change timestamp: nothing shows the record changed.
		return false
	}
	if !sent.parsed {
		return currentRaw != sent.raw
	}
	if sent.legacy {
		return domain.After(current, domain.WallClock(sent.ts, s.zone))
	}
	return !domain.SameInstant(current, sent.ts)
}

// latestSends returns, per id, the most recent send within the window.
// An unreadable log is treated as empty.
func (s *HistoryService) latestSends(ctx context.Context, scenario string, maxAgeDays int) map[domain.RecordID]loggedSend {
	entries, err := s.store.Entries(ctx, scenario)
	if err != nil {
		logger.Warn("history for %s unreadable, treating as empty: %v", scenario, err)
		return map[domain.RecordID]loggedSend{}
	}

	var cutoff time.Time
	if maxAgeDays > 0 {
		cutoff = s.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	}

	latest := make(map[domain.RecordID]loggedSend)
	for _, e := range entries {
		if !cutoff.IsZero() && e.Date.Before(cutoff) {
			continue
		}
		for _, id := range e.RequestIDs {
			prev, seen := latest[id]
			if seen && prev.date.After(e.Date) {
				continue
			}
			ts, legacy, parsed := e.ChangeDate(id)
			latest[id] = loggedSend{
				date:   e.Date,
				ts:     ts,
				raw:    strings.TrimSpace(e.ChangeDatesByRequestID[id]),
				legacy: legacy,
				parsed: parsed,
			}
		}
	}
	return latest
}

// LogSend appends one history entry for a successful send.
func (s *HistoryService) LogSend(
	ctx context.Context,
	scenario string,
	ids []domain.RecordID,
	recipient, subject string,
	changeDates map[domain.RecordID]string,
) error {
	if scenario == "" {
		return fmt.Errorf("%w: scenario is required", domain.ErrInvalidInput)
	}
	if len(ids) == 0 {
		return nil
	}

	entry := domain.HistoryEntry{
		Date:                   s.now().UTC(),
		Recipient:              recipient,
		Subject:                subject,
		RequestIDs:             ids,
		ChangeDatesByRequestID: changeDates,
	}
	if err := s.store.Append(ctx, scenario, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	logger.Info("history %s: logged %d ids for %s", scenario, len(ids), recipient)
	return nil
}

// ChangeDates captures the change timestamp of each record for logging.
// Parsed timestamps are normalised to RFC 3339 in UTC; unparseable values
// are kept verbatim.
func (s *HistoryService) ChangeDates(records []domain.Record) map[domain.RecordID]string {
	out := make(map[domain.RecordID]string, len(records))
	for _, r := range records {
		id := r.ID(s.idField)
		if id == "" {
			continue
		}
		raw, ok := r.Get(s.changeField)
		if !ok {
			continue
		}
		if ts, parsed := domain.ParseTimestamp(raw); parsed {
			out[id] = ts.UTC().Format(time.RFC3339)
			continue
		}
		out[id] = domain.FormatValue(raw)
	}
	return out
}

// Prune drops entries older than days.
func (s *HistoryService) Prune(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", domain.ErrInvalidInput)
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	removed, err := s.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	logger.Info("history: pruned %d entries older than %d days", removed, days)
	return removed, nil
}

// Entries returns the log of one scenario.
func (s *HistoryService) Entries(ctx context.Context, scenario string) ([]domain.HistoryEntry, error) {
	entries, err := s.store.Entries(ctx, scenario)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Scenarios lists the scenarios with at least one entry.
func (s *HistoryService) Scenarios(ctx context.Context) ([]string, error) {
	scenarios, err := s.store.Scenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return scenarios, nil
}
