package core

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultImportTimeout bounds a single import run.
const DefaultImportTimeout = 10 * time.Minute

// DefaultImportLogEvery is how many rows pass between progress log lines.
const DefaultImportLogEvery = 500

// Options tunes a Service. Zero values take the defaults.
type Options struct {
	// ImportLimiter bounds concurrent imports. Nil means unbounded.
	ImportLimiter *ImportLimiter

	// ImportTimeout bounds one import run.
	ImportTimeout time.Duration

	// ImportLogEvery is the progress log interval in rows.
	ImportLogEvery int

	// Location is the time zone export timestamps are written in.
	Location *time.Location

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

// Service is the engine's entry point. It is safe for concurrent use; the
// stores own all shared state.
type Service struct {
	catalog CatalogStore
	scans   ScanLogStore

	limiter       *ImportLimiter
	importTimeout time.Duration
	logEvery      int
	loc           *time.Location
	now           func() time.Time
	validate      *validator.Validate
}

// NewService wires the engine to its stores.
func NewService(catalog CatalogStore, scans ScanLogStore, opts Options) *Service {
	s := &Service{
		catalog:       catalog,
		scans:         scans,
		limiter:       opts.ImportLimiter,
		importTimeout: opts.ImportTimeout,
		logEvery:      opts.ImportLogEvery,
		loc:           opts.Location,
		now:           opts.Now,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.logEvery <= 0 {
		s.logEvery = DefaultImportLogEvery
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CountArticles returns the catalog size.
func (s *Service) CountArticles(ctx context.Context) (int64, error) {
	return s.catalog.Count(ctx)
}

// ImportLimiterStatus reports import slot usage. The zero value means
// imports are not limited.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	if s.limiter == nil {
		return ImportLimiterStatus{}
	}
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.WaitForDrain(ctx)
}

// Now reads the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}
