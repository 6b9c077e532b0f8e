package database

// pool.go implements scoped connection acquisition on top of pgxpool.
//
// Every unit of work runs inside WithConn, which checks a connection out,
// hands it to the callback and returns it on every exit path. A semaphore
// sized to MaxSize bounds concurrent leases; callers that cannot get a slot
// within AcquireTimeout fail with ErrPoolExhausted. Connection-level failures
// that happen before the unit of work reached the server are retried once
// after RetryBackoff, then surface as ErrConnectionUnavailable.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPoolExhausted is returned when no connection frees up within the
// acquire timeout.
var ErrPoolExhausted = errors.New("connection pool exhausted")

// ErrConnectionUnavailable is returned when the database cannot be reached
// after the retry. The underlying cause stays in the chain.
var ErrConnectionUnavailable = errors.New("database connection unavailable")

const (
	DefaultMinSize        = 1
	DefaultMaxSize        = 3
	DefaultAcquireTimeout = 5 * time.Second
	DefaultRetryBackoff   = 200 * time.Millisecond
)

// PoolConfig configures the pool. Zero values take the defaults above.
type PoolConfig struct {
	URL             string
	MinSize         int
	MaxSize         int
	AcquireTimeout  time.Duration
	RetryBackoff    time.Duration
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MinSize == 0 {
		c.MinSize = DefaultMinSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}

// Validate reports an invalid size configuration.
func (c PoolConfig) Validate() error {
	if c.MinSize <= 0 {
		return fmt.Errorf("pool min size must be positive, got %d", c.MinSize)
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("pool max size must be positive, got %d", c.MaxSize)
	}
	if c.MinSize > c.MaxSize {
		return fmt.Errorf("pool min size (%d) exceeds max size (%d)", c.MinSize, c.MaxSize)
	}
	return nil
}

// Lease is a connection checked out of a Source. *pgxpool.Conn satisfies it.
type Lease interface {
	DBTX
	Release()
}

// Source hands out connections. The production Source wraps *pgxpool.Pool.
type Source interface {
	Acquire(ctx context.Context) (Lease, error)
	Close()
}

type pgxSource struct {
	pool *pgxpool.Pool
}

func (s pgxSource) Acquire(ctx context.Context) (Lease, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s pgxSource) Close() {
	s.pool.Close()
}

// Pool bounds and scopes access to database connections.
type Pool struct {
	source         Source
	slots          chan struct{}
	acquireTimeout time.Duration
	retryBackoff   time.Duration

	mu     sync.RWMutex
	active int
}

// Open parses cfg.URL, builds the pgx pool and verifies the database answers.
// Malformed DSNs and authentication failures are returned as is.
func Open(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MinConns = int32(cfg.MinSize)
	poolConfig.MaxConns = int32(cfg.MaxSize)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	p := NewPool(pgxSource{pool: pgxPool}, cfg)
	if err := p.Ping(ctx); err != nil {
		pgxPool.Close()
		return nil, err
	}
	return p, nil
}

// NewPool wraps an existing Source.
func NewPool(src Source, cfg PoolConfig) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		source:         src,
		slots:          make(chan struct{}, cfg.MaxSize),
		acquireTimeout: cfg.AcquireTimeout,
		retryBackoff:   cfg.RetryBackoff,
	}
}

// WithConn runs fn with a leased connection and releases it afterwards,
// including when fn fails or panics. Errors produced by fn's queries are
// returned unchanged unless they are connection failures.
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	err := p.withConnOnce(ctx, fn)
	if err == nil || !isConnectionError(err) {
		return err
	}
	if !retryable(err) {
		return fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}

	logging.FromContext(ctx).Warn("database connection failed, retrying",
		"error", err,
		"backoff", p.retryBackoff,
	)

	timer := time.NewTimer(p.retryBackoff)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	err = p.withConnOnce(ctx, fn)
	if err != nil && isConnectionError(err) {
		return fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}
	return err
}

func (p *Pool) withConnOnce(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	if err := p.acquireSlot(ctx); err != nil {
		return err
	}
	defer p.releaseSlot()

	lease, err := p.source.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &acquireError{err: err}
	}
	defer lease.Release()

	return fn(ctx, lease)
}

func (p *Pool) acquireSlot(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	select {
	case p.slots <- struct{}{}:
		p.mu.Lock()
		p.active++
		p.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrPoolExhausted
	}
}

func (p *Pool) releaseSlot() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	<-p.slots
}

// Ping checks that a connection can be leased and answers a trivial query.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx, "SELECT 1")
		return err
	})
}

// Close shuts down the underlying pool.
func (p *Pool) Close() {
	p.source.Close()
}

// PoolStats is a snapshot of lease usage.
type PoolStats struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	MaxSize   int `json:"max_size"`
}

func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	active := p.active
	p.mu.RUnlock()

	return PoolStats{
		Active:    active,
		Available: cap(p.slots) - len(p.slots),
		MaxSize:   cap(p.slots),
	}
}
