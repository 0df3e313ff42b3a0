package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/logger"
	"github.com/palemoky/trivia-rush/internal/protocol"
)

const (
	mirrorQueueSize = 1024
	tombstoneTTL    = 10 * time.Minute
)

// SessionWriter persists or drops session snapshots
type SessionWriter interface {
	SaveSession(ctx context.Context, info protocol.SessionInfo) error
	DeleteSession(ctx context.Context, code int) error
}

// ResultRecorder receives one call per player of a finished game
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, playerName string, score int, isWinner bool) error
}

type mirrorKind int

const (
	mirrorSave mirrorKind = iota
	mirrorDelete
	mirrorResult
)

type mirrorOp struct {
	kind mirrorKind
	id   string
	code int
	info protocol.SessionInfo
}

// Mirror receives engine session events and writes them to redis on a single
// worker goroutine, so writes for one code apply in event order. Events are
// dropped when the queue is full; the engine never waits on redis.
type Mirror struct {
	sessions SessionWriter
	results  ResultRecorder

	queue chan mirrorOp
	done  chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool

	// removed session ids; snapshots that race a removal are ignored
	removed map[string]time.Time
}

// NewMirror starts the worker. results may be nil.
func NewMirror(sessions SessionWriter, results ResultRecorder) *Mirror {
	m := &Mirror{
		sessions: sessions,
		results:  results,
		queue:    make(chan mirrorOp, mirrorQueueSize),
		done:     make(chan struct{}),
		removed:  make(map[string]time.Time),
	}
	go m.run()
	return m
}

func (m *Mirror) SessionChanged(info protocol.SessionInfo) {
	m.enqueue(mirrorOp{kind: mirrorSave, id: info.ID, code: info.InvitationCode, info: info})
}

func (m *Mirror) SessionRemoved(id uuid.UUID, code int) {
	m.enqueue(mirrorOp{kind: mirrorDelete, id: id.String(), code: code})
}

func (m *Mirror) GameFinished(info protocol.SessionInfo) {
	if m.results == nil {
		return
	}
	m.enqueue(mirrorOp{kind: mirrorResult, id: info.ID, code: info.InvitationCode, info: info})
}

func (m *Mirror) enqueue(op mirrorOp) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- op:
	default:
		log.Printf("⚠️ Redis mirror queue full, dropping event for session %d", op.code)
	}
}

// Close stops accepting events and waits until the queue is drained.
func (m *Mirror) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.queue)
		m.mu.Unlock()
	})
	<-m.done
}

func (m *Mirror) run() {
	defer close(m.done)
	for op := range m.queue {
		m.apply(op)
	}
}

func (m *Mirror) apply(op mirrorOp) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	switch op.kind {
	case mirrorSave:
		if _, gone := m.removed[op.id]; gone {
			return
		}
		if err := m.sessions.SaveSession(ctx, op.info); err != nil {
			logger.LogError("mirror session %d: %v", op.code, err)
		}
	case mirrorDelete:
		m.tombstone(op.id)
		if err := m.sessions.DeleteSession(ctx, op.code); err != nil {
			logger.LogError("drop mirrored session %d: %v", op.code, err)
		}
	case mirrorResult:
		for _, p := range op.info.Players {
			if err := m.results.RecordGameResult(ctx, p.Name, p.Score, p.Winner); err != nil {
				logger.LogError("record result for %s: %v", p.Name, err)
			}
		}
	}
}

func (m *Mirror) tombstone(id string) {
	now := time.Now()
	for k, at := range m.removed {
		if now.Sub(at) > tombstoneTTL {
			delete(m.removed, k)
		}
	}
	m.removed[id] = now
}
