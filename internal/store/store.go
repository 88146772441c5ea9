package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Collection names used by the application. Every record lives in
// exactly one collection and is addressed by (collection, id).
const (
	Families  = "families"
	Users     = "users"
	Documents = "documents"
	Sessions  = "sessions"
)

// ErrNotFound is returned by Get and Update when no record exists for
// the given collection and id.
var ErrNotFound = errors.New("record not found")

type deleteField struct{}

// DeleteField is a sentinel value for Update. Passing it as a field
// value removes that field from the record; passing it as a value
// inside a map-valued field removes that key from the map.
var DeleteField = deleteField{}

// Store is a minimal document store. Records are JSON documents keyed
// by (collection, id). Query supports a single equality filter on a
// top-level field. There are no cross-record transactions; callers
// that touch multiple records must order their writes so a crash in
// between leaves the data in a recoverable state.
type Store interface {
	// Get loads the record with the given id into dest. Returns
	// ErrNotFound when no such record exists.
	Get(ctx context.Context, collection, id string, dest interface{}) error

	// Query loads all records whose top-level field equals value into
	// dest, which must be a pointer to a slice. Results are ordered
	// by id. An empty result is not an error.
	Query(ctx context.Context, collection, field string, value interface{}, dest interface{}) error

	// Set creates or fully replaces the record with the given id.
	Set(ctx context.Context, collection, id string, record interface{}) error

	// Update merges fields into an existing record. Map-valued fields
	// merge key by key; everything else is replaced. DeleteField
	// removes a field or map key. Returns ErrNotFound when the record
	// does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Delete removes the record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, collection, id string) error
}

// normalize round-trips a value through JSON so comparisons and merges
// work on the same representation the store persists.
func normalize(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// mergeFields applies a field-level merge to a raw JSON record and
// returns the merged encoding.
func mergeFields(raw []byte, fields map[string]interface{}) ([]byte, error) {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	for key, value := range fields {
		if _, ok := value.(deleteField); ok {
			delete(record, key)
			continue
		}

		patch, ok := value.(map[string]interface{})
		if !ok {
			normalized, err := normalize(value)
			if err != nil {
				return nil, err
			}
			record[key] = normalized
			continue
		}

		// Map patches merge into an existing map-valued field key by
		// key instead of replacing it wholesale.
		current, _ := record[key].(map[string]interface{})
		if current == nil {
			current = make(map[string]interface{})
		}
		for k, v := range patch {
			if _, ok := v.(deleteField); ok {
				delete(current, k)
				continue
			}
			normalized, err := normalize(v)
			if err != nil {
				return nil, err
			}
			current[k] = normalized
		}
		record[key] = current
	}

	merged, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return merged, nil
}

// matchField reports whether the raw record's top-level field equals
// value under JSON normalization.
func matchField(raw []byte, field string, value interface{}) (bool, error) {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return false, fmt.Errorf("failed to decode record: %w", err)
	}
	got, ok := record[field]
	if !ok {
		return false, nil
	}
	want, err := normalize(value)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(got, want), nil
}

// decodeList unmarshals a set of raw records into dest, which must be
// a pointer to a slice.
func decodeList(raws [][]byte, dest interface{}) error {
	buf := []byte("[")
	for i, raw := range raws {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, raw...)
	}
	buf = append(buf, ']')

	if err := json.Unmarshal(buf, dest); err != nil {
		return fmt.Errorf("failed to decode records: %w", err)
	}
	return nil
}
