package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/extcheck/internal/diag"
)

// marshalJSON encodes v as compact JSON TEXT for storage.
// HTML escaping is disabled so stored messages stay byte-identical.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalOrder converts the expansion order to JSON TEXT.
func marshalOrder(order []string) (string, error) {
	if order == nil {
		order = []string{}
	}
	data, err := marshalJSON(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}
	return data, nil
}

// unmarshalOrder parses JSON TEXT to an expansion order.
func unmarshalOrder(data string) ([]string, error) {
	order := []string{}
	if data == "" {
		return order, nil
	}
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return order, nil
}

// marshalRelated converts related coordinates to JSON TEXT.
func marshalRelated(related []diag.Related) (string, error) {
	if related == nil {
		related = []diag.Related{}
	}
	data, err := marshalJSON(related)
	if err != nil {
		return "", fmt.Errorf("marshal related: %w", err)
	}
	return data, nil
}

// unmarshalRelated parses JSON TEXT to related coordinates.
// An empty array yields nil so round-tripped diagnostics compare equal.
func unmarshalRelated(data string) ([]diag.Related, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var related []diag.Related
	if err := json.Unmarshal([]byte(data), &related); err != nil {
		return nil, fmt.Errorf("unmarshal related: %w", err)
	}
	return related, nil
}
