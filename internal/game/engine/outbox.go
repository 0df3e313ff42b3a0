package engine

import (
	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

type opKind int

const (
	opConn opKind = iota
	opGroup
	opJoin
	opLeave
	opDrop
	opChanged
	opRemoved
	opFinished
)

type op struct {
	kind    opKind
	target  string
	conn    string
	msgType protocol.MessageType
	payload any
	info    protocol.SessionInfo
	id      uuid.UUID
	code    int
}

// outbox collects notifications while a session lock is held. Payloads are
// copies, so flushing after unlock sees the state as it was.
type outbox struct {
	ops []op
}

func (o *outbox) toConn(connID string, t protocol.MessageType, payload any) {
	o.ops = append(o.ops, op{kind: opConn, conn: connID, msgType: t, payload: payload})
}

func (o *outbox) toGroup(s *Session, t protocol.MessageType, payload any) {
	o.ops = append(o.ops, op{kind: opGroup, target: s.ID.String(), msgType: t, payload: payload})
}

func (o *outbox) status(s *Session, text string) {
	o.toGroup(s, protocol.MsgStatus, protocol.StatusPayload{Text: text})
}

// snapshot broadcasts the session and mirrors it to the observer.
func (o *outbox) snapshot(s *Session) {
	info := sessionInfo(s)
	o.toGroup(s, protocol.MsgSessionInfo, info)
	o.ops = append(o.ops, op{kind: opChanged, info: info})
}

func (o *outbox) join(s *Session, connID string) {
	o.ops = append(o.ops, op{kind: opJoin, target: s.ID.String(), conn: connID})
}

func (o *outbox) leave(s *Session, connID string) {
	o.ops = append(o.ops, op{kind: opLeave, target: s.ID.String(), conn: connID})
}

func (o *outbox) removed(s *Session) {
	o.ops = append(o.ops,
		op{kind: opDrop, target: s.ID.String()},
		op{kind: opRemoved, id: s.ID, code: s.Code},
	)
}

func (o *outbox) finished(s *Session) {
	o.ops = append(o.ops, op{kind: opFinished, info: sessionInfo(s)})
}

// release hands s over from its state lock to its delivery lock. Every
// release is paired with flushSession.
func (s *Session) release() {
	s.deliver.Lock()
	s.mu.Unlock()
}

// flushSession delivers out and ends the handoff begun by release.
func (e *Engine) flushSession(s *Session, out *outbox) {
	defer s.deliver.Unlock()
	e.flush(out)
}

// flush delivers everything in order. Must be called without holding any session's mu.
func (e *Engine) flush(o *outbox) {
	for _, op := range o.ops {
		switch op.kind {
		case opConn:
			if op.conn != "" {
				e.notifier.SendToConn(op.conn, codec.MustNewMessage(op.msgType, op.payload))
			}
		case opGroup:
			e.notifier.SendToGroup(op.target, codec.MustNewMessage(op.msgType, op.payload))
		case opJoin:
			if op.conn != "" {
				e.notifier.JoinGroup(op.target, op.conn)
			}
		case opLeave:
			if op.conn != "" {
				e.notifier.LeaveGroup(op.target, op.conn)
			}
		case opDrop:
			e.notifier.DropGroup(op.target)
		case opChanged:
			e.observer.SessionChanged(op.info)
		case opRemoved:
			e.observer.SessionRemoved(op.id, op.code)
		case opFinished:
			e.observer.GameFinished(op.info)
		}
	}
	o.ops = o.ops[:0]
}
