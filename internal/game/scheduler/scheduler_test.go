package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/palemoky/trivia-rush/internal/game/engine"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/testutil"
)

type fakeEngine struct {
	mu       sync.Mutex
	ids      []uuid.UUID
	advanced map[uuid.UUID]int
	fail     map[uuid.UUID]error
	panics   map[uuid.UUID]bool
	hold     chan struct{} // Advance waits on it when set
	sweeps   atomic.Int32
}

func newFakeEngine(n int) *fakeEngine {
	f := &fakeEngine{
		advanced: make(map[uuid.UUID]int),
		fail:     make(map[uuid.UUID]error),
		panics:   make(map[uuid.UUID]bool),
	}
	for range n {
		f.ids = append(f.ids, uuid.New())
	}
	return f
}

func (f *fakeEngine) SessionIDs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.ids...)
}

func (f *fakeEngine) Advance(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	f.advanced[id]++
	err, boom, hold := f.fail[id], f.panics[id], f.hold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if boom {
		panic("corrupted session")
	}
	return err
}

func (f *fakeEngine) SweepIdlePlayers() int {
	f.sweeps.Add(1)
	return 2
}

func (f *fakeEngine) count(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advanced[id]
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTick_IsolatesFaults(t *testing.T) {
	t.Parallel()
	f := newFakeEngine(4)
	f.fail[f.ids[1]] = errors.New("provider down")
	f.panics[f.ids[2]] = true

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	s := New(f, time.Second, WithTracerProvider(tp), WithConcurrency(2))

	s.Tick(context.Background())

	for _, id := range f.ids {
		assert.Equal(t, 1, f.count(id))
	}
	assert.Equal(t, int32(1), f.sweeps.Load())

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "scheduler.tick", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	v, ok := attr(span.Attributes(), "faults")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
	v, ok = attr(span.Attributes(), "sessions")
	require.True(t, ok)
	assert.Equal(t, int64(4), v.AsInt64())
	v, ok = attr(span.Attributes(), "players.swept")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
	assert.Len(t, span.Events(), 2)
}

func TestTick_NoSessions(t *testing.T) {
	t.Parallel()
	f := newFakeEngine(0)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	New(f, time.Second, WithTracerProvider(tp)).Tick(context.Background())

	assert.Equal(t, int32(1), f.sweeps.Load())
	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()
	f := newFakeEngine(1)
	s := New(f, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return f.count(f.ids[0]) >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_StopWaitsForTickInFlight(t *testing.T) {
	t.Parallel()
	f := newFakeEngine(1)
	f.hold = make(chan struct{})
	s := New(f, time.Millisecond)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return f.count(f.ids[0]) == 1 }, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a tick was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.hold)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	n := f.count(f.ids[0])
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, f.count(f.ids[0]), "no tick after stop")
}

func TestTick_DrivesEngine(t *testing.T) {
	t.Parallel()
	notifier := testutil.NewRecordingNotifier()
	e := engine.New(engine.NewRegistry(), testutil.Bank(2, 2), notifier)

	adm, err := e.CreateSession(context.Background(), "c1", "alice", 0)
	require.NoError(t, err)
	require.NoError(t, e.SetReady(context.Background(), adm.PlayerID.String(), adm.InvitationCode, true))

	s := New(e, time.Second)
	for range 3 {
		s.Tick(context.Background())
	}

	phase, ok := e.Phase(adm.InvitationCode)
	require.True(t, ok)
	assert.Equal(t, engine.PhaseAnswering, phase)
	assert.Equal(t, 1, notifier.CountGroup(adm.SessionID.String(), protocol.MsgRoundInfo))
}
