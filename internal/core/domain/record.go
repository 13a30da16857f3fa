package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultIDField is the primary key column of an extracted request row.
const DefaultIDField = "request_position_id"

// Record is one flat row: column name to scalar value.
// Values are string, int64, float64, bool, time.Time or nil.
type Record map[string]any

// Get returns the value for a field and whether the field is present with a non-nil value.
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the field formatted as text, or "" if absent.
func (r Record) String(field string) string {
	v, ok := r.Get(field)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Has reports whether the field is present with a non-empty value.
func (r Record) Has(field string) bool {
	return strings.TrimSpace(r.String(field)) != ""
}

// SetIfAbsent assigns a value only when the field has no value yet.
// It reports whether the value was written.
func (r Record) SetIfAbsent(field string, value any) bool {
	if r.Has(field) {
		return false
	}
	r[field] = value
	return true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the record identifier held in idField.
func (r Record) ID(idField string) RecordID {
	return RecordID(r.String(idField))
}

// RecordSet is the result of an extraction: ordered columns and rows.
type RecordSet struct {
	Columns []string
	Rows    []Record
}

// Len returns the number of rows.
func (s RecordSet) Len() int {
	return len(s.Rows)
}

// WithColumns returns the column list extended by any names not yet present.
func (s RecordSet) WithColumns(extra ...string) []string {
	out := make([]string, 0, len(s.Columns)+len(extra))
	seen := make(map[string]bool, len(s.Columns)+len(extra))
	for _, c := range append(append([]string{}, s.Columns...), extra...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Values returns the record's values in column order.
func (r Record) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// FilterEquals keeps the records whose field, formatted as text, equals value.
// The comparison is on the string form so 7, 7.0 and "7" all match "7".
func FilterEquals(rows []Record, field, value string) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if r.String(field) == value {
			out = append(out, r)
		}
	}
	return out
}

// FormatValue renders a scalar value as text.
// Integral floats print without a fractional part.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateTime)
	case interface{ String() string }:
		return x.String()
	default:
		return ""
	}
}

// IDSet is a set of record identifiers.
type IDSet map[RecordID]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...RecordID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an id.
func (s IDSet) Add(id RecordID) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id RecordID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order, numeric ids first by value.
func (s IDSet) Sorted() []RecordID {
	out := make([]RecordID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
