package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/jjenkins/billtracker/internal/model"
)

// Key identifies one record in a Repository
type Key struct {
	Kind   model.Kind
	IDAttr string
	ID     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.IDAttr, k.ID)
}

// Repository is the identity map: at most one record exists per Key, and
// every lookup for that key returns the same instance. Entries are only
// dropped by Forget.
type Repository struct {
	mu      sync.Mutex
	records map[Key]model.Record
	order   map[model.Kind][]model.Record
}

// NewRepository creates an empty Repository
func NewRepository() *Repository {
	return &Repository{
		records: make(map[Key]model.Record),
		order:   make(map[model.Kind][]model.Record),
	}
}

// GetOrCreate returns the record stored under key, or stores and returns
// the one built by create. The lookup and the insert happen under one lock
// so two callers can never create two instances for the same key. create
// must only construct the record.
func GetOrCreate[T model.Record](r *Repository, key Key, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok {
		rec, ok := existing.(T)
		if !ok {
			panic(fmt.Sprintf("store: record %s has type %T", key, existing))
		}
		return rec
	}

	rec := create()
	r.records[key] = rec
	r.order[key.Kind] = append(r.order[key.Kind], rec)
	return rec
}

// Lookup returns the record stored under key
func Lookup[T model.Record](r *Repository, key Key) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[key]
	if !ok {
		var zero T
		return zero, false
	}
	rec, ok := existing.(T)
	return rec, ok
}

// All returns every record of kind in insertion order
func All[T model.Record](r *Repository, kind model.Kind) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, len(r.order[kind]))
	for _, rec := range r.order[kind] {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Forget drops every record of the given kinds. Later lookups for their
// keys create new instances; records of other kinds keep their identity.
func (r *Repository) Forget(kinds ...model.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range kinds {
		delete(r.order, kind)
	}
	for key := range r.records {
		if slices.Contains(kinds, key.Kind) {
			delete(r.records, key)
		}
	}
}

// Len returns the number of records held
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
