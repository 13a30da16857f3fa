// Package env layers environment variables over another configuration store.
//
// Deployments that keep secrets out of the TOML file set them through the
// environment instead, e.g. DB_PASSWORD or SMTP_PASSWORD.
package env

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/services"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// Variables maps environment variable names to configuration keys.
var Variables = map[string]string{
	"DB_HOST":                    services.KeyDBHost,
	"DB_PORT":                    services.KeyDBPort,
	"DB_NAME":                    services.KeyDBName,
	"DB_USER":                    services.KeyDBUser,
	"DB_PASSWORD":                services.KeyDBPassword,
	"SPREADSHEET_ID":             services.KeySpreadsheetID,
	"GOOGLE_SERVICE_ACCOUNT_KEY": services.KeyServiceKey,
	"SHEET_NAME":                 services.KeyExportTab,
	"DIRECTORY_URL":              services.KeyDirURL,
	"DIRECTORY_REALM":            services.KeyDirRealm,
	"DIRECTORY_ADMIN_USER":       services.KeyDirUser,
	"DIRECTORY_ADMIN_PASSWORD":   services.KeyDirPassword,
	"SMTP_HOST":                  services.KeySMTPHost,
	"SMTP_PORT":                  services.KeySMTPPort,
	"SMTP_USER":                  services.KeySMTPUser,
	"SMTP_PASSWORD":              services.KeySMTPPassword,
	"MAIL_FROM":                  services.KeyMailFrom,
	"HISTORY_PATH":               services.KeyHistoryPath,
}

// LookupFunc reads one environment variable.
type LookupFunc func(name string) (string, bool)

// Store answers from the environment first and falls back to base.
// Writes always go to base.
type Store struct {
	base   driven.ConfigStore
	lookup LookupFunc
	byKey  map[string]string
}

// NewStore overlays the process environment on base.
func NewStore(base driven.ConfigStore) *Store {
	return NewStoreWithLookup(base, os.LookupEnv)
}

// NewStoreWithLookup overlays the variables reported by lookup on base.
func NewStoreWithLookup(base driven.ConfigStore, lookup LookupFunc) *Store {
	byKey := make(map[string]string, len(Variables))
	for name, key := range Variables {
		byKey[key] = name
	}
	return &Store{base: base, lookup: lookup, byKey: byKey}
}

func (s *Store) env(key string) (string, bool) {
	name, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	val, ok := s.lookup(name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Get returns the environment value as a string, or the base value.
func (s *Store) Get(key string) (any, bool) {
	if val, ok := s.env(key); ok {
		return val, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	if val, ok := s.env(key); ok {
		return val
	}
	return s.base.GetString(key)
}

// GetInt retrieves an integer value. An environment value that is not
// a number is ignored.
func (s *Store) GetInt(key string) int {
	if val, ok := s.env(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return s.base.GetInt(key)
}

// GetFloat retrieves a floating point value.
func (s *Store) GetFloat(key string) float64 {
	if val, ok := s.env(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return s.base.GetFloat(key)
}

// GetBool retrieves a boolean value.
func (s *Store) GetBool(key string) bool {
	if val, ok := s.env(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return s.base.GetBool(key)
}

// GetStringSlice retrieves a list. Environment values are comma separated.
func (s *Store) GetStringSlice(key string) []string {
	if val, ok := s.env(key); ok {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return s.base.GetStringSlice(key)
}

// Keys returns the base keys plus the keys set through the environment.
func (s *Store) Keys() []string {
	seen := make(map[string]bool)
	keys := s.base.Keys()
	for _, k := range keys {
		seen[k] = true
	}
	for key := range s.byKey {
		if _, ok := s.env(key); ok && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	sort.Strings(keys)
	return keys
}

// Set stores the value in the base store.
func (s *Store) Set(key string, value any) error {
	return s.base.Set(key, value)
}

// Path returns the base configuration file path.
func (s *Store) Path() string {
	return s.base.Path()
}
