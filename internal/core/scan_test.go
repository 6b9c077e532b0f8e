package core

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widget = Article{InternalCode: "ART001", Description: "Widget", EAN: "8412345678901"}

func TestValidate_Matched(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)

	res, err := svc.Validate(context.Background(), "8412345678901")
	require.NoError(t, err)

	assert.True(t, res.Matched())
	assert.Equal(t, ScanMatched, res.Status)
	require.NotNil(t, res.Reading)
	assert.Equal(t, "ART001", res.Reading.InternalCode)
	assert.Equal(t, "Widget", res.Reading.Description)
	assert.Equal(t, "8412345678901", res.Reading.EAN)
	assert.False(t, res.Reading.ReadAt.IsZero())
	assert.Equal(t, 1, scans.count())
}

func TestValidate_TrimsSurroundingWhitespace(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)

	res, err := svc.Validate(context.Background(), "  8412345678901\r\n")
	require.NoError(t, err)

	assert.True(t, res.Matched())
	assert.Equal(t, "8412345678901", res.EAN)
}

func TestValidate_Unmatched(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)

	res, err := svc.Validate(context.Background(), "9999999999999")
	require.NoError(t, err)

	assert.Equal(t, ScanUnmatched, res.Status)
	assert.Equal(t, "9999999999999", res.EAN)
	assert.Nil(t, res.Reading)
	assert.Equal(t, 0, scans.count(), "a miss must not write a reading")
}

func TestValidate_ExactMatchOnly(t *testing.T) {
	lower := Article{InternalCode: "ART009", Description: "Lower", EAN: "abc123"}
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(lower, widget), scans)

	for _, code := range []string{"ABC123", "abc12", "08412345678901", "841234567890"} {
		t.Run(code, func(t *testing.T) {
			res, err := svc.Validate(context.Background(), code)
			require.NoError(t, err)
			assert.Equal(t, ScanUnmatched, res.Status)
		})
	}
	assert.Equal(t, 0, scans.count())
}

func TestValidate_BlankInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		t.Run(raw, func(t *testing.T) {
			catalog := newMemCatalog(widget)
			scans := newMemScanLog()
			svc := newTestService(catalog, scans)

			_, err := svc.Validate(context.Background(), raw)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, catalog.lookups, "blank input must not reach the catalog")
			assert.Equal(t, 0, scans.appends)
		})
	}
}

func TestValidate_OneReadingPerCall(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)

	for i := 0; i < 5; i++ {
		_, err := svc.Validate(context.Background(), widget.EAN)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, scans.count())
}

func TestValidate_SnapshotSurvivesCatalogEdit(t *testing.T) {
	catalog := newMemCatalog(widget)
	scans := newMemScanLog()
	svc := newTestService(catalog, scans)
	ctx := context.Background()

	_, err := svc.Validate(ctx, widget.EAN)
	require.NoError(t, err)

	_, err = catalog.Upsert(ctx, "ART001-B", "Widget v2", widget.EAN)
	require.NoError(t, err)

	res, err := svc.Validate(ctx, widget.EAN)
	require.NoError(t, err)
	assert.Equal(t, "ART001-B", res.Reading.InternalCode)

	history, err := svc.RecentReadings(ctx, HistoryFilter{Order: OrderAsc})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ART001", history[0].InternalCode)
	assert.Equal(t, "Widget", history[0].Description)
	assert.Equal(t, "ART001-B", history[1].InternalCode)
}

func TestValidateSubmission_Replay(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)
	ctx := context.Background()
	id := uuid.New()

	first, err := svc.ValidateSubmission(ctx, id, widget.EAN)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := svc.ValidateSubmission(ctx, id, widget.EAN)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Reading.ID, second.Reading.ID)
	assert.Equal(t, 1, scans.count())
}

func TestValidate_RecordsActor(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)

	res, err := svc.Validate(context.Background(), widget.EAN)
	require.NoError(t, err)
	assert.Equal(t, DefaultActor, res.Reading.Actor)

	ctx := ContextWithActor(context.Background(), " maria ")
	res, err = svc.Validate(ctx, widget.EAN)
	require.NoError(t, err)
	assert.Equal(t, "maria", res.Reading.Actor)
}

func TestRecentReadings_Limits(t *testing.T) {
	scans := newMemScanLog()
	svc := newTestService(newMemCatalog(widget), scans)
	ctx := context.Background()

	for i := 0; i < DefaultRecentLimit+5; i++ {
		_, err := svc.Validate(ctx, widget.EAN)
		require.NoError(t, err)
	}

	got, err := svc.RecentReadings(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, got, DefaultRecentLimit)
	assert.True(t, got[0].ReadAt.After(got[1].ReadAt), "default order is most recent first")

	got, err = svc.RecentReadings(ctx, HistoryFilter{Limit: 3, Order: OrderAsc})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].ReadAt.Before(got[1].ReadAt))
}

func TestRecentReadings_EmptyIsNotNil(t *testing.T) {
	svc := newTestService(newMemCatalog(), newMemScanLog())

	got, err := svc.RecentReadings(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
