package core

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run the store SQL against a real PostgreSQL. Each test gets
// its own schema, dropped afterwards. They are skipped when DATABASE_URL
// is unset.

// withSearchPath points dsn at schema, for both URL and keyword/value DSNs.
func withSearchPath(dsn, schema string) (string, error) {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// postgresPool opens a pool on a fresh schema with the tables applied.
func postgresPool(t *testing.T) *database.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "scanmaster_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	require.NoError(t, admin.Close(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			t.Logf("drop schema %s: %v", schema, err)
			return
		}
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	scoped, err := withSearchPath(dsn, schema)
	require.NoError(t, err)

	pool, err := database.Open(ctx, database.PoolConfig{URL: scoped, MinSize: 1, MaxSize: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	err = pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		return database.EnsureSchema(ctx, db)
	})
	require.NoError(t, err)
	return pool
}

func TestWithSearchPath(t *testing.T) {
	got, err := withSearchPath("postgres://u:p@localhost:5432/db?sslmode=disable", "s1")
	require.NoError(t, err)
	assert.Contains(t, got, "search_path=s1")
	assert.Contains(t, got, "sslmode=disable")

	got, err = withSearchPath("host=localhost dbname=db", "s1")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=db search_path=s1", got)
}

func TestPostgresCatalog_Upsert(t *testing.T) {
	catalog := NewPostgresCatalog(postgresPool(t))
	ctx := context.Background()

	res, err := catalog.Upsert(ctx, "ART001", `Monitor 24"`, "8412345678901")
	require.NoError(t, err)
	assert.Equal(t, UpsertInserted, res.Status)
	assert.Empty(t, res.PreviousCode)

	// Same code again: an update without a previous code.
	res, err = catalog.Upsert(ctx, "ART001", `Monitor 24"`, "8412345678901")
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, res.Status)
	assert.Empty(t, res.PreviousCode)

	// The EAN moves to another code.
	res, err = catalog.Upsert(ctx, "ART009", "Monitor 27", "8412345678901")
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, res.Status)
	assert.Equal(t, "ART001", res.PreviousCode)

	a, err := catalog.LookupByEAN(ctx, "8412345678901")
	require.NoError(t, err)
	assert.Equal(t, "ART009", a.InternalCode)
	assert.Equal(t, "Monitor 27", a.Description)
	assert.False(t, a.UpdatedAt.Before(a.CreatedAt))

	n, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = catalog.LookupByEAN(ctx, "0000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCatalog_UpsertRejections(t *testing.T) {
	catalog := NewPostgresCatalog(postgresPool(t))
	ctx := context.Background()

	res, err := catalog.Upsert(ctx, "ART001", "Widget", strings.Repeat("8", 65))
	require.NoError(t, err)
	assert.Equal(t, UpsertRejected, res.Status)
	assert.Equal(t, ReasonInvalidValue, res.Reason)

	res, err = catalog.Upsert(ctx, "ART001", "Widget", "   ")
	require.NoError(t, err)
	assert.Equal(t, UpsertRejected, res.Status)
}

func TestPostgresCatalog_ConcurrentUpsertSameEAN(t *testing.T) {
	catalog := NewPostgresCatalog(postgresPool(t))
	ctx := context.Background()

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []UpsertResult
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := catalog.Upsert(ctx, fmt.Sprintf("ART%03d", i), "Widget", "8412345678901")
			assert.NoError(t, err)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, res := range results {
		assert.NotEqual(t, UpsertRejected, res.Status)
		if res.Status == UpsertInserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	n, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgresScanLog_AppendReplay(t *testing.T) {
	scans := NewPostgresScanLog(postgresPool(t))
	ctx := context.Background()
	id := uuid.New()

	first, replayed, err := scans.Append(ctx, NewReading{
		EAN: "8412345678901", InternalCode: "ART001", Description: "Widget",
		Actor: "maria", SubmissionID: id,
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	require.NotNil(t, first.SubmissionID)
	assert.Equal(t, id, *first.SubmissionID)
	assert.Equal(t, "maria", first.Actor)

	again, replayed, err := scans.Append(ctx, NewReading{
		EAN: "8412345678901", InternalCode: "ART001", Description: "Widget",
		SubmissionID: id,
	})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.ReadAt.Equal(again.ReadAt))

	// Without an id every append is a new reading, with the default actor.
	for i := 0; i < 2; i++ {
		r, replayed, err := scans.Append(ctx, NewReading{EAN: "8412345678901", InternalCode: "ART001"})
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Nil(t, r.SubmissionID)
		assert.Equal(t, DefaultActor, r.Actor)
	}

	all, err := scans.List(ctx, HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPostgresScanLog_StreamFilters(t *testing.T) {
	scans := NewPostgresScanLog(postgresPool(t))
	ctx := context.Background()

	var appended []ScanReading
	for _, ean := range []string{"8412345678901", "8412345678902", "8412345678901"} {
		r, _, err := scans.Append(ctx, NewReading{EAN: ean, InternalCode: "ART", Description: "x"})
		require.NoError(t, err)
		appended = append(appended, r)
	}
	ids := func(rs []ScanReading) []int64 {
		out := make([]int64, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	desc, err := scans.List(ctx, HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[2].ID, appended[1].ID, appended[0].ID}, ids(desc))

	asc, err := scans.List(ctx, HistoryFilter{Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[0].ID, appended[1].ID, appended[2].ID}, ids(asc))

	byEAN, err := scans.List(ctx, HistoryFilter{EAN: "8412345678901", Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[0].ID, appended[2].ID}, ids(byEAN))

	from := appended[1].ReadAt
	since, err := scans.List(ctx, HistoryFilter{From: &from, Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[1].ID, appended[2].ID}, ids(since))

	// To is exclusive.
	before, err := scans.List(ctx, HistoryFilter{To: &from})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[0].ID}, ids(before))

	limited, err := scans.List(ctx, HistoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{appended[2].ID}, ids(limited))

	// A consumer error stops the stream and comes back unchanged.
	seen := 0
	err = scans.Stream(ctx, HistoryFilter{}, func(ScanReading) error {
		seen++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, seen)
}
