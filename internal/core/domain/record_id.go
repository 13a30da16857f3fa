package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RecordID identifies a record in the history log.
// Ids are stored as text; numeric ids are written back to JSON as numbers
// so logs produced by earlier tooling round-trip unchanged.
type RecordID string

// String returns the id text.
func (id RecordID) String() string {
	return string(id)
}

// Less orders numeric ids by value and everything else lexically after them.
func (id RecordID) Less(other RecordID) bool {
	a, aErr := strconv.ParseInt(string(id), 10, 64)
	b, bErr := strconv.ParseInt(string(other), 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return a < b
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return id < other
	}
}

// MarshalJSON writes integer ids as JSON numbers.
func (id RecordID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = RecordID(strconv.FormatInt(i, 10))
		return nil
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*id = RecordID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = RecordID(n.String())
	return nil
}
