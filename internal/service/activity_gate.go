package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/clock"
	"github.com/spec-kit/counselor-presence/internal/persistence"
)

// ActivityGate throttles presence writes so that at most one activity signal
// per counselor reaches the store within a window.
type ActivityGate interface {
	// Acquire reports whether the caller may write now.
	Acquire(ctx context.Context, counselorID string) bool
	// Release reopens the window after a failed write so the next signal retries.
	Release(ctx context.Context, counselorID string)
}

// NewActivityGate returns a Redis-backed gate when Redis is configured and a
// process-local one otherwise. A non-positive window disables throttling.
func NewActivityGate(redis *persistence.Redis, clk clock.Clock, window time.Duration, logger *zap.Logger) ActivityGate {
	if window <= 0 {
		return openGate{}
	}
	if redis.Enabled() {
		return &redisGate{redis: redis, window: window, logger: logger}
	}
	return NewLocalActivityGate(clk, window)
}

type openGate struct{}

func (openGate) Acquire(context.Context, string) bool { return true }
func (openGate) Release(context.Context, string)      {}

type redisGate struct {
	redis  *persistence.Redis
	window time.Duration
	logger *zap.Logger
}

func (g *redisGate) Acquire(ctx context.Context, counselorID string) bool {
	ok, err := g.redis.AcquireWindow(ctx, counselorID, g.window)
	if err != nil {
		// fail open: a missed throttle costs one extra write
		g.logger.Warn("activity window unavailable", zap.String("counselor_id", counselorID), zap.Error(err))
		return true
	}
	return ok
}

func (g *redisGate) Release(ctx context.Context, counselorID string) {
	if err := g.redis.ReleaseWindow(ctx, counselorID); err != nil {
		g.logger.Warn("release activity window", zap.String("counselor_id", counselorID), zap.Error(err))
	}
}

// LocalActivityGate keeps windows in process memory.
type LocalActivityGate struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	claimed map[string]time.Time
}

// NewLocalActivityGate builds an in-process gate.
func NewLocalActivityGate(clk clock.Clock, window time.Duration) *LocalActivityGate {
	if clk == nil {
		clk = clock.Real()
	}
	return &LocalActivityGate{clock: clk, window: window, claimed: make(map[string]time.Time)}
}

// Acquire claims the window for counselorID if it is free or expired.
func (g *LocalActivityGate) Acquire(_ context.Context, counselorID string) bool {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if at, ok := g.claimed[counselorID]; ok && now.Sub(at) < g.window {
		return false
	}
	g.claimed[counselorID] = now
	for id, at := range g.claimed {
		if now.Sub(at) >= g.window {
			delete(g.claimed, id)
		}
	}
	return true
}

// Release frees the window for counselorID.
func (g *LocalActivityGate) Release(_ context.Context, counselorID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, counselorID)
}
