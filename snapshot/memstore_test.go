package snapshot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// memStore is an in-memory ScopeStore for tests: filtered selects, conflict
// key upserts and filtered deletes over reflective row storage.
type memStore struct {
	mu          sync.Mutex
	tables      map[string][]any
	missing     map[string]bool
	failUpsert  map[string]int // table -> 1-based upsert call that fails
	upsertCalls map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		tables:      map[string][]any{},
		missing:     map[string]bool{},
		failUpsert:  map[string]int{},
		upsertCalls: map[string]int{},
	}
}

func (s *memStore) Select(_ context.Context, table string, filter map[string]any, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing[table] {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	dv := reflect.ValueOf(dest).Elem()
	for _, row := range s.tables[table] {
		if matchFilter(row, filter) {
			dv.Set(reflect.Append(dv, reflect.ValueOf(row)))
		}
	}
	return nil
}

func (s *memStore) Upsert(_ context.Context, table string, rows any, conflictCols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing[table] {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	s.upsertCalls[table]++
	if n := s.failUpsert[table]; n > 0 && s.upsertCalls[table] == n {
		return errors.New("write refused")
	}
	rv := reflect.ValueOf(rows)
	for i := 0; i < rv.Len(); i++ {
		s.put(table, rv.Index(i).Interface(), conflictCols)
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, table string, filter map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing[table] {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !matchFilter(row, filter) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	return nil
}

func (s *memStore) put(table string, row any, conflictCols []string) {
	for i, existing := range s.tables[table] {
		if sameConflictKey(existing, row, conflictCols) {
			s.tables[table][i] = row
			return
		}
	}
	s.tables[table] = append(s.tables[table], row)
}

func (s *memStore) count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

func sameConflictKey(a any, b any, cols []string) bool {
	for _, col := range cols {
		av, _ := fieldByTag(a, col)
		bv, _ := fieldByTag(b, col)
		if av != bv {
			return false
		}
	}
	return true
}

func matchFilter(row any, filter map[string]any) bool {
	for col, want := range filter {
		got, ok := fieldByTag(row, col)
		if !ok {
			return false
		}
		wv := reflect.ValueOf(want)
		if wv.Kind() == reflect.Slice {
			hit := false
			for i := 0; i < wv.Len(); i++ {
				if wv.Index(i).Interface() == got {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		if want != got {
			return false
		}
	}
	return true
}

func fieldByTag(row any, col string) (any, bool) {
	v := reflect.ValueOf(row)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if tag == col {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

// seed bypasses conflict handling and loads raw rows into one table.
func (s *memStore) seed(table string, rows ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rows...)
}

// selectScope is a test convenience wrapper over Select.
func selectScope[T any](s *memStore, table string, scope Scope) []T {
	var out []T
	_ = s.Select(context.Background(), table, scopeFilter(scope), &out)
	return out
}
