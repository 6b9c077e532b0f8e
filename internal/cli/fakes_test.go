package cli

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/app"
	"github.com/JonMunkholm/scanmaster/internal/config"
	"github.com/JonMunkholm/scanmaster/internal/core"
)

type memCatalog struct {
	mu       sync.Mutex
	articles map[string]core.Article
}

func (c *memCatalog) LookupByEAN(ctx context.Context, ean string) (core.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.articles[ean]
	if !ok {
		return core.Article{}, core.ErrNotFound
	}
	return a, nil
}

func (c *memCatalog) Upsert(ctx context.Context, internalCode, description, ean string) (core.UpsertResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, exists := c.articles[ean]
	c.articles[ean] = core.Article{InternalCode: internalCode, Description: description, EAN: ean}
	if !exists {
		return core.UpsertResult{Status: core.UpsertInserted}, nil
	}
	res := core.UpsertResult{Status: core.UpsertUpdated}
	if prev.InternalCode != internalCode {
		res.PreviousCode = prev.InternalCode
	}
	return res, nil
}

func (c *memCatalog) Count(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.articles)), nil
}

type memScanLog struct {
	mu       sync.Mutex
	readings []core.ScanReading
	clock    time.Time
}

func (l *memScanLog) Append(ctx context.Context, r core.NewReading) (core.ScanReading, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = l.clock.Add(time.Minute)
	reading := core.ScanReading{
		ID:           int64(len(l.readings) + 1),
		EAN:          r.EAN,
		InternalCode: r.InternalCode,
		Description:  r.Description,
		ReadAt:       l.clock,
		Actor:        r.Actor,
	}
	l.readings = append(l.readings, reading)
	return reading, false, nil
}

func (l *memScanLog) Stream(ctx context.Context, f core.HistoryFilter, fn func(core.ScanReading) error) error {
	for _, r := range l.matching(f) {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (l *memScanLog) List(ctx context.Context, f core.HistoryFilter) ([]core.ScanReading, error) {
	return l.matching(f), nil
}

// matching applies the EAN filter and the order; time bounds are not needed
// by these tests.
func (l *memScanLog) matching(f core.HistoryFilter) []core.ScanReading {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.ScanReading
	for _, r := range l.readings {
		if f.EAN == "" || r.EAN == f.EAN {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Order == core.OrderAsc {
			return out[i].ReadAt.Before(out[j].ReadAt)
		}
		return out[i].ReadAt.After(out[j].ReadAt)
	})
	return out
}

type testEnv struct {
	opts    *RootOptions
	catalog *memCatalog
	scans   *memScanLog
}

func newTestEnv(t *testing.T, articles ...core.Article) *testEnv {
	t.Helper()

	env := &testEnv{
		catalog: &memCatalog{articles: make(map[string]core.Article)},
		scans:   &memScanLog{clock: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
	}
	for _, a := range articles {
		env.catalog.articles[a.EAN] = a
	}

	svc := core.NewService(env.catalog, env.scans, core.Options{Location: time.UTC})
	env.opts = &RootOptions{
		open: func(ctx context.Context, opts *RootOptions) (*app.App, error) {
			return &app.App{Config: &config.Config{}, Service: svc, Location: time.UTC}, nil
		},
	}
	return env
}

func (e *testEnv) run(args ...string) (string, error) {
	cmd := newRootCommand(e.opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
