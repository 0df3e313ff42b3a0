package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequentialCodes hands out 100001, 100002, ...
func sequentialCodes() func() int {
	var mu sync.Mutex
	next := 100000
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		next++
		return next
	}
}

type harness struct {
	e        *Engine
	notifier *testutil.RecordingNotifier
	observer *testutil.RecordingObserver
	clock    *fakeClock
}

func newHarness(t *testing.T, provider content.Provider, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		notifier: testutil.NewRecordingNotifier(),
		observer: &testutil.RecordingObserver{},
		clock:    newFakeClock(),
	}
	base := []Option{
		WithClock(h.clock.Now),
		WithCodeGenerator(sequentialCodes()),
		WithRandom(func(int) int { return 0 }),
		WithObserver(h.observer),
	}
	h.e = New(NewRegistry(), provider, h.notifier, append(base, opts...)...)
	return h
}

func shortGame(rounds int) Option {
	r := DefaultRules()
	r.RoundLimit = rounds
	return WithRules(r)
}

func (h *harness) create(t *testing.T, conn, name string) Admission {
	t.Helper()
	adm, err := h.e.CreateSession(context.Background(), conn, name, 0)
	require.NoError(t, err)
	return adm
}

func (h *harness) join(t *testing.T, code int, conn, name string) Admission {
	t.Helper()
	adm, err := h.e.JoinSession(context.Background(), conn, code, name)
	require.NoError(t, err)
	return adm
}

func (h *harness) ready(t *testing.T, code int, players ...Admission) {
	t.Helper()
	for _, p := range players {
		require.NoError(t, h.e.SetReady(context.Background(), p.PlayerID.String(), code, true))
	}
}

func (h *harness) session(t *testing.T, code int) *Session {
	t.Helper()
	s, ok := h.e.registry.SessionByCode(code)
	require.True(t, ok, "session %d not registered", code)
	return s
}

func (h *harness) tick(t *testing.T, code int, n int) {
	t.Helper()
	s := h.session(t, code)
	for range n {
		require.NoError(t, h.e.Advance(context.Background(), s.ID))
	}
}

// tickUntil advances until cond holds, failing after limit ticks.
func (h *harness) tickUntil(t *testing.T, code int, limit int, cond func(s *Session) bool) {
	t.Helper()
	s := h.session(t, code)
	for range limit {
		s.mu.Lock()
		done := cond(s)
		s.mu.Unlock()
		if done {
			return
		}
		require.NoError(t, h.e.Advance(context.Background(), s.ID))
	}
	t.Fatalf("condition not reached after %d ticks", limit)
}

func (h *harness) round(t *testing.T, code int) Round {
	t.Helper()
	s := h.session(t, code)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

func (h *harness) info(t *testing.T, code int) protocol.SessionInfo {
	t.Helper()
	info, ok := h.e.Snapshot(code)
	require.True(t, ok)
	return info
}

func (h *harness) player(t *testing.T, id uuid.UUID) *Player {
	t.Helper()
	p, ok := h.e.registry.Player(id)
	require.True(t, ok)
	return p
}

// startRound readies everybody and ticks through the opening break.
func (h *harness) startRound(t *testing.T, code int, players ...Admission) {
	t.Helper()
	h.ready(t, code, players...)
	h.tickUntil(t, code, 10, func(s *Session) bool { return s.round.Ongoing })
}

func statusTexts(t *testing.T, msgs []*protocol.Message) []string {
	t.Helper()
	var out []string
	for _, m := range msgs {
		if m.Type != protocol.MsgStatus {
			continue
		}
		p, err := codec.ParsePayload[protocol.StatusPayload](m)
		require.NoError(t, err)
		out = append(out, p.Text)
	}
	return out
}

func group(adm Admission) string {
	return adm.SessionID.String()
}

// gateNotifier stalls the first matching delivery after arm until release is
// closed, so tests can interleave another operation with an unfinished flush.
type gateNotifier struct {
	*testutil.RecordingNotifier
	holdJoin bool
	holdType protocol.MessageType
	armed    atomic.Bool
	entered  chan struct{}
	release  chan struct{}
}

func newGateNotifier(rec *testutil.RecordingNotifier) *gateNotifier {
	return &gateNotifier{
		RecordingNotifier: rec,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gateNotifier) holdGroup(t protocol.MessageType) {
	g.holdType = t
	g.armed.Store(true)
}

func (g *gateNotifier) holdJoins() {
	g.holdJoin = true
	g.armed.Store(true)
}

func (g *gateNotifier) wait() {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
}

func (g *gateNotifier) SendToGroup(group string, msg *protocol.Message) {
	if !g.holdJoin && msg.Type == g.holdType {
		g.wait()
	}
	g.RecordingNotifier.SendToGroup(group, msg)
}

func (g *gateNotifier) JoinGroup(group, connID string) {
	if g.holdJoin {
		g.wait()
	}
	g.RecordingNotifier.JoinGroup(group, connID)
}
