// Package metrics records engine counters on the OpenTelemetry metric API.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/palemoky/trivia-rush/internal/game"

// Recorder holds the engine's instruments. The zero value is not usable; use
// New or Noop.
type Recorder struct {
	sessionsCreated metric.Int64Counter
	sessionsClosed  metric.Int64Counter
	roundsStarted   metric.Int64Counter
	answersAccepted metric.Int64Counter
	gamesFinished   metric.Int64Counter
	sessionFaults   metric.Int64Counter
	tickDuration    metric.Float64Histogram
}

// New creates instruments from mp. A nil mp uses the global provider.
func New(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)

	r := &Recorder{}
	var err error
	if r.sessionsCreated, err = m.Int64Counter("trivia.sessions.created",
		metric.WithDescription("Sessions registered")); err != nil {
		return nil, err
	}
	if r.sessionsClosed, err = m.Int64Counter("trivia.sessions.closed",
		metric.WithDescription("Sessions removed from the registry")); err != nil {
		return nil, err
	}
	if r.roundsStarted, err = m.Int64Counter("trivia.rounds.started"); err != nil {
		return nil, err
	}
	if r.answersAccepted, err = m.Int64Counter("trivia.answers.accepted"); err != nil {
		return nil, err
	}
	if r.gamesFinished, err = m.Int64Counter("trivia.games.finished"); err != nil {
		return nil, err
	}
	if r.sessionFaults, err = m.Int64Counter("trivia.sessions.faults",
		metric.WithDescription("Recovered failures while advancing a session")); err != nil {
		return nil, err
	}
	if r.tickDuration, err = m.Float64Histogram("trivia.scheduler.tick.duration",
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return r, nil
}

// Noop returns a recorder that discards everything.
func Noop() *Recorder {
	r, _ := New(noop.NewMeterProvider())
	return r
}

// RegisterGauges reports live sessions and players through callbacks.
func RegisterGauges(mp metric.MeterProvider, sessions, players func() int) error {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)

	liveSessions, err := m.Int64ObservableGauge("trivia.sessions.live")
	if err != nil {
		return err
	}
	livePlayers, err := m.Int64ObservableGauge("trivia.players.live")
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(liveSessions, int64(sessions()))
		o.ObserveInt64(livePlayers, int64(players()))
		return nil
	}, liveSessions, livePlayers)
	return err
}

func (r *Recorder) SessionCreated(ctx context.Context) {
	r.sessionsCreated.Add(ctx, 1)
}

// SessionClosed reason is one of "forming_timeout", "game_over_timeout",
// "start_failed", "replaced".
func (r *Recorder) SessionClosed(ctx context.Context, reason string) {
	r.sessionsClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *Recorder) RoundStarted(ctx context.Context) {
	r.roundsStarted.Add(ctx, 1)
}

func (r *Recorder) AnswerAccepted(ctx context.Context) {
	r.answersAccepted.Add(ctx, 1)
}

// GameFinished outcome is one of "winner", "draw", "no_winner".
func (r *Recorder) GameFinished(ctx context.Context, outcome string) {
	r.gamesFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *Recorder) SessionFault(ctx context.Context) {
	r.sessionFaults.Add(ctx, 1)
}

func (r *Recorder) TickDuration(ctx context.Context, d time.Duration) {
	r.tickDuration.Record(ctx, float64(d.Microseconds())/1000)
}
