// Package scheduler drives every live session once per tick.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/trivia-rush/internal/logger"
	"github.com/palemoky/trivia-rush/internal/metrics"
)

const tracerName = "github.com/palemoky/trivia-rush/internal/game/scheduler"

// Advancer is the part of the engine the scheduler needs.
type Advancer interface {
	SessionIDs() []uuid.UUID
	Advance(ctx context.Context, id uuid.UUID) error
	SweepIdlePlayers() int
}

// Scheduler ticks sessions concurrently. A session that errors or panics is
// logged and counted; the rest of the tick carries on.
type Scheduler struct {
	engine   Advancer
	interval time.Duration
	limit    int
	metrics  *metrics.Recorder
	tracer   trace.Tracer
}

type Option func(*Scheduler)

// WithMetrics records tick duration and session faults.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) { s.tracer = tp.Tracer(tracerName) }
}

// WithConcurrency caps how many sessions advance at once. n <= 0 means no cap.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.limit = n }
}

func New(engine Advancer, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:   engine,
		interval: interval,
		limit:    64,
		metrics:  metrics.Noop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. A tick already running completes first.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("⏱️ Scheduler started, interval %v", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("⏱️ Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Start runs Run in the background. The returned stop cancels it and blocks
// until the tick in flight, if any, has finished.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// Tick advances every live session once, then sweeps idle players.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	ids := s.engine.SessionIDs()

	var (
		g      errgroup.Group
		faults atomic.Int64
	)
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}
	for _, id := range ids {
		g.Go(func() error {
			if err := s.advance(ctx, id); err != nil {
				faults.Add(1)
				s.metrics.SessionFault(ctx)
				logger.LogError("advance session %s: %v", id, err)
				span.RecordError(err, trace.WithAttributes(attribute.String("session.id", id.String())))
			}
			return nil
		})
	}
	_ = g.Wait()

	swept := s.engine.SweepIdlePlayers()

	span.SetAttributes(
		attribute.Int("sessions", len(ids)),
		attribute.Int64("faults", faults.Load()),
		attribute.Int("players.swept", swept),
	)
	if n := faults.Load(); n > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d sessions failed", n))
	}
	s.metrics.TickDuration(ctx, time.Since(start))
}

func (s *Scheduler) advance(ctx context.Context, id uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.engine.Advance(ctx, id)
}
