package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// ResolvedRecipients are the addresses one notification goes to.
type ResolvedRecipients struct {
	To  []string
	CC  []string
	BCC []string
	// Invalid lists addresses that were dropped because they do not parse.
	Invalid []string
}

// All returns every address, primary recipients first.
func (r ResolvedRecipients) All() []string {
	out := make([]string, 0, len(r.To)+len(r.CC)+len(r.BCC))
	out = append(out, r.To...)
	out = append(out, r.CC...)
	return append(out, r.BCC...)
}

// ResolveRecipients builds the address lists for a scenario.
//
// Primary recipients come from the scenario's static list, or, when the
// scenario names a recipient column, from that column across all records.
// A cell may hold several addresses separated by commas, semicolons or line
// breaks; each may carry a display name ("Ivan Petrov <ivan@example.com>"),
// which is dropped. Addresses are deduplicated case-insensitively, keeping the
// first spelling. An empty primary list is domain.ErrNoRecipients.
func ResolveRecipients(s domain.Scenario, rows []domain.Record) (ResolvedRecipients, error) {
	seen := make(map[string]bool)
	var res ResolvedRecipients

	var to []string
	if s.UsesColumnRecipients() {
		for _, r := range rows {
			to = append(to, splitAddresses(r.String(s.RecipientColumn))...)
		}
	} else {
		for _, a := range s.Recipients.To {
			to = append(to, splitAddresses(a)...)
		}
	}

	res.To = collectAddresses(to, seen, &res.Invalid)
	res.CC = collectAddresses(expand(s.Recipients.CC), seen, &res.Invalid)
	res.BCC = collectAddresses(expand(s.Recipients.BCC), seen, &res.Invalid)

	if len(res.To) == 0 {
		return res, fmt.Errorf("%w: scenario %s", domain.ErrNoRecipients, s.ID)
	}
	return res, nil
}

func expand(list []string) []string {
	var out []string
	for _, a := range list {
		out = append(out, splitAddresses(a)...)
	}
	return out
}

// splitAddresses splits a cell on separators outside double quotes.
func splitAddresses(s string) []string {
	var out []string
	quoted := false
	start := 0
	flush := func(end int) {
		if part := strings.TrimSpace(s[start:end]); part != "" {
			out = append(out, part)
		}
	}
	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ',' || r == ';' || r == '\n' || r == '\r'):
			flush(i)
			start = i + 1
		}
	}
	flush(len(s))
	return out
}

func collectAddresses(candidates []string, seen map[string]bool, invalid *[]string) []string {
	var out []string
	for _, c := range candidates {
		addr, err := mail.ParseAddress(c)
		if err != nil {
			*invalid = append(*invalid, c)
			continue
		}
		key := strings.ToLower(addr.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr.Address)
	}
	return out
}
