package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

func TestResolveRecipients_Static(t *testing.T) {
	s := domain.Scenario{
		ID: "kam",
		Recipients: domain.Recipients{
			To:  []string{"a@example.com; B@example.com", "A@Example.com"},
			CC:  []string{"b@example.com", "c@example.com"},
			BCC: []string{"audit@example.com"},
		},
	}

	res, err := ResolveRecipients(s, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "B@example.com"}, res.To)
	assert.Equal(t, []string{"c@example.com"}, res.CC)
	assert.Equal(t, []string{"audit@example.com"}, res.BCC)
	assert.Equal(t, []string{"a@example.com", "B@example.com", "c@example.com", "audit@example.com"}, res.All())
}

func TestResolveRecipients_ColumnAcrossRecords(t *testing.T) {
	s := domain.Scenario{ID: "kam", RecipientColumn: "responsible_email", Recipients: domain.Recipients{To: []string{"ignored@example.com"}}}
	rows := []domain.Record{
		{"responsible_email": "x@example.com"},
		{"responsible_email": "y@example.com, X@example.com"},
		{"responsible_email": nil},
		{},
	}

	res, err := ResolveRecipients(s, rows)

	require.NoError(t, err)
	assert.Equal(t, []string{"x@example.com", "y@example.com"}, res.To)
}

func TestResolveRecipients_Empty(t *testing.T) {
	_, err := ResolveRecipients(domain.Scenario{ID: "kam"}, nil)
	assert.ErrorIs(t, err, domain.ErrNoRecipients)

	_, err = ResolveRecipients(domain.Scenario{ID: "kam", RecipientColumn: "email"}, []domain.Record{{"email": ""}})
	assert.ErrorIs(t, err, domain.ErrNoRecipients)
}

func TestResolveRecipients_InvalidSkipped(t *testing.T) {
	s := domain.Scenario{ID: "kam", Recipients: domain.Recipients{To: []string{"not-an-address", "ok@example.com"}}}

	res, err := ResolveRecipients(s, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"ok@example.com"}, res.To)
	assert.Equal(t, []string{"not-an-address"}, res.Invalid)
}

func TestResolveRecipients_DisplayNames(t *testing.T) {
	s := domain.Scenario{ID: "kam", Recipients: domain.Recipients{
		To: []string{`Ivan Petrov <ivan@example.com>; "Petrova, Anna" <anna@example.com>`},
		CC: []string{"lead@example.com\nops@example.com"},
	}}

	res, err := ResolveRecipients(s, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"ivan@example.com", "anna@example.com"}, res.To)
	assert.Equal(t, []string{"lead@example.com", "ops@example.com"}, res.CC)
	assert.Empty(t, res.Invalid)
}

func TestSplitAddresses(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{input: "", expected: nil},
		{input: " a@example.com ", expected: []string{"a@example.com"}},
		{input: "a@example.com,, b@example.com;", expected: []string{"a@example.com", "b@example.com"}},
		{input: "Ivan Petrov <ivan@example.com>", expected: []string{"Ivan Petrov <ivan@example.com>"}},
		{input: `"Doe; John" <j@example.com>, k@example.com`, expected: []string{`"Doe; John" <j@example.com>`, "k@example.com"}},
		{input: "a@example.com\r\nb@example.com", expected: []string{"a@example.com", "b@example.com"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitAddresses(tt.input), tt.input)
	}
}
