package domain

import "time"

// HistoryEntry records one notification send for a scenario.
// Entries are appended and never mutated.
type HistoryEntry struct {
	// ID is assigned by the store on append.
	ID         string     `json:"id,omitempty"`
	Date       time.Time  `json:"date"`
	Recipient  string     `json:"recipient,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	RequestIDs []RecordID `json:"request_ids"`
	// ChangeDatesByRequestID is the change timestamp each record had when it was sent.
	// Entries written by older tooling do not carry it.
	ChangeDatesByRequestID map[RecordID]string `json:"changeDatesByRequestId,omitempty"`
}

// ChangeDate returns the logged change timestamp for id.
// Legacy entries without per-id timestamps report the send date instead,
// with legacy set to true.
func (e HistoryEntry) ChangeDate(id RecordID) (ts time.Time, legacy bool, ok bool) {
	if raw, found := e.ChangeDatesByRequestID[id]; found {
		if t, parsed := ParseTimestamp(raw); parsed {
			return t, false, true
		}
		return time.Time{}, false, false
	}
	return e.Date, true, !e.Date.IsZero()
}

// Contains reports whether the entry lists id.
func (e HistoryEntry) Contains(id RecordID) bool {
	for _, rid := range e.RequestIDs {
		if rid == id {
			return true
		}
	}
	return false
}

// History is the whole log keyed by scenario.
type History map[string][]HistoryEntry
