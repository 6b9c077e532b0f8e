package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/google/uuid"
)

const (
	// DefaultRecentLimit is how many readings RecentReadings returns when
	// the filter sets no limit.
	DefaultRecentLimit = 100

	// MaxRecentLimit caps RecentReadings. Larger histories go through Export.
	MaxRecentLimit = 1000
)

// Validate resolves a scanned code against the catalog. A match records one
// reading and returns it; an unknown code returns an Unmatched result and
// writes nothing. Blank input fails with ErrInvalidInput before any store
// access.
func (s *Service) Validate(ctx context.Context, raw string) (ScanResult, error) {
	return s.ValidateSubmission(ctx, uuid.Nil, raw)
}

// ValidateSubmission is Validate with a client-generated submission id. A
// resubmitted id returns the reading recorded the first time instead of
// recording another one. uuid.Nil disables deduplication.
func (s *Service) ValidateSubmission(ctx context.Context, submissionID uuid.UUID, raw string) (ScanResult, error) {
	ean := strings.TrimSpace(raw)
	if ean == "" {
		return ScanResult{}, ErrInvalidInput
	}

	logger := logging.WithFields(ctx, "ean", ean)

	article, err := s.catalog.LookupByEAN(ctx, ean)
	if errors.Is(err, ErrNotFound) {
		logger.Info("scan unmatched")
		return ScanResult{Status: ScanUnmatched, EAN: ean}, nil
	}
	if err != nil {
		return ScanResult{}, fmt.Errorf("validate scan: %w", err)
	}

	reading, replayed, err := s.scans.Append(ctx, NewReading{
		EAN:          ean,
		InternalCode: article.InternalCode,
		Description:  article.Description,
		Actor:        ActorFromContext(ctx),
		SubmissionID: submissionID,
	})
	if err != nil {
		return ScanResult{}, fmt.Errorf("record scan: %w", err)
	}

	logger.Info("scan matched",
		"codigo_articulo", reading.InternalCode,
		"reading_id", reading.ID,
		"replayed", replayed,
	)

	return ScanResult{
		Status:   ScanMatched,
		EAN:      ean,
		Reading:  &reading,
		Replayed: replayed,
	}, nil
}

// RecentReadings lists readings for display, most recent first unless the
// filter asks otherwise. The limit defaults to DefaultRecentLimit and is
// capped at MaxRecentLimit.
func (s *Service) RecentReadings(ctx context.Context, f HistoryFilter) ([]ScanReading, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultRecentLimit
	}
	if f.Limit > MaxRecentLimit {
		f.Limit = MaxRecentLimit
	}
	if f.Order == "" {
		f.Order = OrderDesc
	}

	readings, err := s.scans.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	if readings == nil {
		readings = []ScanReading{}
	}
	return readings, nil
}
