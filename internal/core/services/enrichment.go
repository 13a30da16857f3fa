package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// EnrichResult is the outcome of one enrichment pass.
type EnrichResult struct {
	// Rows are copies of the input records with contact fields appended.
	Rows []domain.Record
	// Columns are the contact field names the rules may append, in rule order.
	Columns []string
	// Enriched counts records that received at least one contact field.
	Enriched int
	// Lookups counts directory round-trips.
	Lookups int
	// Warnings describes lookups that failed and were skipped.
	Warnings []string
}

// Enricher appends directory contact data to records.
type Enricher struct {
	directory driven.Directory
}

// NewEnricher creates an enricher. A nil directory disables enrichment.
func NewEnricher(directory driven.Directory) *Enricher {
	return &Enricher{directory: directory}
}

// SplitName splits a free-text "Surname Given ..." name.
// Only the first two tokens are used.
func SplitName(name string) (surname, given string) {
	fields := strings.Fields(norm.NFC.String(name))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[1]
	}
}

// enrichPass memoises lookups for one call to Enrich.
type enrichPass struct {
	byName   map[string]*domain.Contact
	byID     map[string]*domain.Contact
	lookups  int
	warnings []string
}

// Enrich resolves contacts for every record and rule.
// Records are looked up one at a time. A directory failure leaves the
// record without contact data and is reported as a warning.
func (e *Enricher) Enrich(ctx context.Context, rows []domain.Record, rules []domain.EnrichmentRule) (EnrichResult, error) {
	result := EnrichResult{Rows: make([]domain.Record, len(rows))}
	for _, rule := range rules {
		result.Columns = append(result.Columns, rule.Fields()...)
	}

	pass := &enrichPass{
		byName: make(map[string]*domain.Contact),
		byID:   make(map[string]*domain.Contact),
	}

	for i, row := range rows {
		out := row.Clone()
		result.Rows[i] = out
		if e.directory == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		added := false
		for _, rule := range rules {
			contact := e.resolve(ctx, pass, out, rule)
			if applyContact(out, rule, contact) {
				added = true
			}
		}
		if added {
			result.Enriched++
		}
	}

	result.Lookups = pass.lookups
	result.Warnings = pass.warnings
	logger.Info("enrichment: %d of %d records enriched (%d lookups)", result.Enriched, len(rows), pass.lookups)
	return result, nil
}

// resolve finds the contact for one record, by name first and then by id.
func (e *Enricher) resolve(ctx context.Context, pass *enrichPass, r domain.Record, rule domain.EnrichmentRule) *domain.Contact {
	var contact *domain.Contact

	if rule.NameField != "" && r.Has(rule.NameField) {
		surname, given := SplitName(r.String(rule.NameField))
		key := strings.ToLower(surname + "\x00" + given)
		cached, ok := pass.byName[key]
		if !ok {
			pass.lookups++
			found, err := e.directory.SearchByName(ctx, surname, given)
			if err != nil {
				pass.warn(err, "search %q %q", surname, given)
				found = nil
			}
			pass.byName[key] = found
			cached = found
		}
		contact = cached
	}

	if contact.IsEmpty() && rule.IDField != "" && r.Has(rule.IDField) {
		id := strings.TrimSpace(r.String(rule.IDField))
		cached, ok := pass.byID[id]
		if !ok {
			pass.lookups++
			found, err := e.directory.GetByID(ctx, id)
			if err != nil {
				pass.warn(err, "get user %s", id)
				found = nil
			}
			pass.byID[id] = found
			cached = found
		}
		if !cached.IsEmpty() {
			contact = cached
		}
	}

	return contact
}

func (p *enrichPass) warn(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...) + ": " + err.Error()
	if errors.Is(err, domain.ErrDirectoryUnavailable) {
		logger.Warn("directory unavailable, record left unenriched: %s", msg)
	} else {
		logger.Warn("directory lookup failed, record left unenriched: %s", msg)
	}
	p.warnings = append(p.warnings, msg)
}

// applyContact appends the contact's non-empty values to fields the record
// does not already carry. It reports whether anything was written.
func applyContact(r domain.Record, rule domain.EnrichmentRule, c *domain.Contact) bool {
	if c.IsEmpty() {
		return false
	}
	wrote := false
	values := map[string]string{
		rule.Prefix + domain.FieldEmail:       c.Email,
		rule.Prefix + domain.FieldPhone:       c.Phone,
		rule.Prefix + domain.FieldDisplayName: c.DisplayName,
	}
	for _, field := range rule.Fields() {
		v := values[field]
		if v == "" {
			continue
		}
		if r.SetIfAbsent(field, v) {
			wrote = true
		}
	}
	return wrote
}
