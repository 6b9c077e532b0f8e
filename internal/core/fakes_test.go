package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memCatalog is an in-memory CatalogStore.
type memCatalog struct {
	mu       sync.Mutex
	articles map[string]Article
	lookups  int
	upserts  int

	// failEAN makes Upsert return failErr for that EAN.
	failEAN string
	failErr error
}

func newMemCatalog(articles ...Article) *memCatalog {
	c := &memCatalog{articles: make(map[string]Article)}
	for _, a := range articles {
		c.articles[a.EAN] = a
	}
	return c
}

func (c *memCatalog) LookupByEAN(ctx context.Context, ean string) (Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	a, ok := c.articles[ean]
	if !ok {
		return Article{}, ErrNotFound
	}
	return a, nil
}

func (c *memCatalog) Upsert(ctx context.Context, internalCode, description, ean string) (UpsertResult, error) {
	if res, ok := checkUpsertInput(internalCode, ean); !ok {
		return res, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts++

	if c.failEAN != "" && ean == c.failEAN {
		return UpsertResult{}, c.failErr
	}

	prev, exists := c.articles[ean]
	now := time.Now()
	a := Article{InternalCode: internalCode, Description: description, EAN: ean, CreatedAt: now, UpdatedAt: now}
	if exists {
		a.CreatedAt = prev.CreatedAt
		c.articles[ean] = a
		res := UpsertResult{Status: UpsertUpdated}
		if prev.InternalCode != internalCode {
			res.PreviousCode = prev.InternalCode
		}
		return res, nil
	}
	c.articles[ean] = a
	return UpsertResult{Status: UpsertInserted}, nil
}

func (c *memCatalog) Count(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.articles)), nil
}

func (c *memCatalog) get(ean string) (Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.articles[ean]
	return a, ok
}

// memScanLog is an in-memory ScanLogStore with a controllable clock.
type memScanLog struct {
	mu       sync.Mutex
	readings []ScanReading
	clock    time.Time
	appends  int
}

func newMemScanLog() *memScanLog {
	return &memScanLog{clock: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (l *memScanLog) Append(ctx context.Context, r NewReading) (ScanReading, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appends++

	if r.SubmissionID != uuid.Nil {
		for _, existing := range l.readings {
			if existing.SubmissionID != nil && *existing.SubmissionID == r.SubmissionID {
				return existing, true, nil
			}
		}
	}

	l.clock = l.clock.Add(time.Minute)
	reading := ScanReading{
		ID:           int64(len(l.readings) + 1),
		EAN:          r.EAN,
		InternalCode: r.InternalCode,
		Description:  r.Description,
		ReadAt:       l.clock,
		Actor:        r.Actor,
	}
	if r.SubmissionID != uuid.Nil {
		id := r.SubmissionID
		reading.SubmissionID = &id
	}
	l.readings = append(l.readings, reading)
	return reading, false, nil
}

func (l *memScanLog) Stream(ctx context.Context, f HistoryFilter, fn func(ScanReading) error) error {
	for _, r := range l.matching(f) {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (l *memScanLog) List(ctx context.Context, f HistoryFilter) ([]ScanReading, error) {
	return l.matching(f), nil
}

func (l *memScanLog) matching(f HistoryFilter) []ScanReading {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ScanReading
	for _, r := range l.readings {
		if f.From != nil && r.ReadAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !r.ReadAt.Before(*f.To) {
			continue
		}
		if f.EAN != "" && r.EAN != f.EAN {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if f.Order == OrderAsc {
			return out[i].ReadAt.Before(out[j].ReadAt)
		}
		return out[i].ReadAt.After(out[j].ReadAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (l *memScanLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.readings)
}

func newTestService(catalog *memCatalog, scans *memScanLog) *Service {
	return NewService(catalog, scans, Options{Location: time.UTC})
}
