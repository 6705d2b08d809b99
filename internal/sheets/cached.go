package sheets

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedSource memoizes another Source per sheet for a TTL
type CachedSource struct {
	source Source
	cache  *cache.Cache
	reads  atomic.Uint64
}

// NewCachedSource wraps source with a TTL cache
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Rows returns cached rows or reads them through. Callers must not mutate
// the returned rows; use Copy first.
func (s *CachedSource) Rows(ctx context.Context, sheet string) ([]Row, error) {
	if cached, found := s.cache.Get(sheet); found {
		return cached.([]Row), nil
	}

	rows, err := s.source.Rows(ctx, sheet)
	if err != nil {
		return nil, err
	}
	s.cache.Set(sheet, rows, cache.DefaultExpiration)
	s.reads.Add(1)
	return rows, nil
}

// Generation counts the reads that went through to the wrapped source
func (s *CachedSource) Generation() uint64 {
	return s.reads.Load()
}

// Copy returns a deep copy of rows
func Copy(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		c := make(Row, len(row))
		for k, v := range row {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
