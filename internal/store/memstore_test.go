package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type testRecord struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Owner string            `json:"owner"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func TestMemStoreSetAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	record := testRecord{ID: "r1", Name: "first", Owner: "alice"}
	if err := s.Set(ctx, "records", "r1", record); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testRecord
	if err := s.Get(ctx, "records", "r1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != record.ID || got.Name != record.Name || got.Owner != record.Owner {
		t.Errorf("Get() = %+v, want %+v", got, record)
	}
}

func TestMemStoreGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var got testRecord
	err := s.Get(ctx, "records", "missing", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemStoreSetReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if err := s.Set(ctx, "records", "r1", testRecord{ID: "r1", Name: "old", Owner: "alice"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "records", "r1", testRecord{ID: "r1", Name: "new"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testRecord
	if err := s.Get(ctx, "records", "r1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "new" {
		t.Errorf("Name = %q, want %q", got.Name, "new")
	}
	if got.Owner != "" {
		t.Errorf("Owner = %q, want empty after full replace", got.Owner)
	}
}

func TestMemStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	records := []testRecord{
		{ID: "r3", Name: "third", Owner: "alice"},
		{ID: "r1", Name: "first", Owner: "alice"},
		{ID: "r2", Name: "second", Owner: "bob"},
	}
	for _, r := range records {
		if err := s.Set(ctx, "records", r.ID, r); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		field   string
		value   interface{}
		wantIDs []string
	}{
		{
			name:    "matches multiple records ordered by id",
			field:   "owner",
			value:   "alice",
			wantIDs: []string{"r1", "r3"},
		},
		{
			name:    "matches single record",
			field:   "owner",
			value:   "bob",
			wantIDs: []string{"r2"},
		},
		{
			name:    "no matches yields empty slice",
			field:   "owner",
			value:   "carol",
			wantIDs: []string{},
		},
		{
			name:    "missing field matches nothing",
			field:   "nope",
			value:   "alice",
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []testRecord
			if err := s.Query(ctx, "records", tt.field, tt.value, &got); err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Query() returned %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("result[%d].ID = %q, want %q", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestMemStoreUpdate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		initial testRecord
		fields  map[string]interface{}
		check   func(t *testing.T, got testRecord)
	}{
		{
			name:    "replaces scalar field and keeps the rest",
			initial: testRecord{ID: "r1", Name: "old", Owner: "alice"},
			fields:  map[string]interface{}{"name": "new"},
			check: func(t *testing.T, got testRecord) {
				if got.Name != "new" {
					t.Errorf("Name = %q, want %q", got.Name, "new")
				}
				if got.Owner != "alice" {
					t.Errorf("Owner = %q, want untouched %q", got.Owner, "alice")
				}
			},
		},
		{
			name:    "deletes a field",
			initial: testRecord{ID: "r1", Name: "old", Owner: "alice"},
			fields:  map[string]interface{}{"owner": DeleteField},
			check: func(t *testing.T, got testRecord) {
				if got.Owner != "" {
					t.Errorf("Owner = %q, want removed", got.Owner)
				}
			},
		},
		{
			name:    "merges into map field",
			initial: testRecord{ID: "r1", Tags: map[string]string{"a": "1", "b": "2"}},
			fields:  map[string]interface{}{"tags": map[string]interface{}{"c": "3"}},
			check: func(t *testing.T, got testRecord) {
				if len(got.Tags) != 3 {
					t.Fatalf("Tags has %d entries, want 3", len(got.Tags))
				}
				if got.Tags["a"] != "1" || got.Tags["c"] != "3" {
					t.Errorf("Tags = %v, want merged a/b/c", got.Tags)
				}
			},
		},
		{
			name:    "removes a map key",
			initial: testRecord{ID: "r1", Tags: map[string]string{"a": "1", "b": "2"}},
			fields:  map[string]interface{}{"tags": map[string]interface{}{"a": DeleteField}},
			check: func(t *testing.T, got testRecord) {
				if _, ok := got.Tags["a"]; ok {
					t.Error("Tags still contains removed key a")
				}
				if got.Tags["b"] != "2" {
					t.Errorf("Tags[b] = %q, want untouched %q", got.Tags["b"], "2")
				}
			},
		},
		{
			name:    "map merge into absent field creates it",
			initial: testRecord{ID: "r1"},
			fields:  map[string]interface{}{"tags": map[string]interface{}{"a": "1"}},
			check: func(t *testing.T, got testRecord) {
				if got.Tags["a"] != "1" {
					t.Errorf("Tags = %v, want map with a=1", got.Tags)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemStore()
			if err := s.Set(ctx, "records", "r1", tt.initial); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Update(ctx, "records", "r1", tt.fields); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			var got testRecord
			if err := s.Get(ctx, "records", "r1", &got); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestMemStoreConcurrentMapMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if err := s.Set(ctx, "records", "r1", testRecord{ID: "r1", Tags: map[string]string{}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Every concurrent merge adds a distinct key; none may be lost to
	// another writer's stale snapshot
	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			err := s.Update(ctx, "records", "r1", map[string]interface{}{
				"tags": map[string]interface{}{key: "v"},
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Update() error = %v", err)
	}

	var got testRecord
	if err := s.Get(ctx, "records", "r1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Tags) != writers {
		t.Errorf("Tags has %d entries after %d concurrent merges, want %d", len(got.Tags), writers, writers)
	}
}

func TestMemStoreUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	err := s.Update(ctx, "records", "missing", map[string]interface{}{"name": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestMemStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if err := s.Set(ctx, "records", "r1", testRecord{ID: "r1"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, "records", "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got testRecord
	if err := s.Get(ctx, "records", "r1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing record is a no-op
	if err := s.Delete(ctx, "records", "r1"); err != nil {
		t.Errorf("Delete() of missing record error = %v, want nil", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if err := s.Set(ctx, "families", "x", testRecord{ID: "x", Name: "family"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "users", "x", testRecord{ID: "x", Name: "user"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testRecord
	if err := s.Get(ctx, "families", "x", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "family" {
		t.Errorf("Name = %q, want %q", got.Name, "family")
	}

	if err := s.Delete(ctx, "users", "x"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Get(ctx, "families", "x", &got); err != nil {
		t.Errorf("Get() after cross-collection delete error = %v", err)
	}
}
