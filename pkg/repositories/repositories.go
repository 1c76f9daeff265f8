// Package repositories provides SQLite-backed data access for the engine's
// entities. Each repository exposes an interface so services can be tested
// against mocks, with an unexported implementation over database/sql.
//
// Unlike the wholesale read-modify-write JSON files this layer replaces,
// every mutation here is a single per-record statement, so concurrent
// requests cannot silently drop each other's writes.
package repositories

import (
	"encoding/json"
	"fmt"
	"time"
)

// marshalStrings encodes a string slice as a JSON column value.
// nil is stored as an empty list.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(raw), nil
}

// unmarshalStrings decodes a JSON column value into a string slice.
func unmarshalStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}

// toMillis converts a time to the integer column representation.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts the integer column representation back to UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
