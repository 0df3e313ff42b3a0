//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// RecordingNotifier keeps every delivered message for assertions.
type RecordingNotifier struct {
	mu      sync.Mutex
	conn    map[string][]*protocol.Message
	group   map[string][]*protocol.Message
	members map[string]map[string]bool
	dropped map[string]bool
}

// NewRecordingNotifier creates an empty recorder
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		conn:    make(map[string][]*protocol.Message),
		group:   make(map[string][]*protocol.Message),
		members: make(map[string]map[string]bool),
		dropped: make(map[string]bool),
	}
}

func (n *RecordingNotifier) SendToConn(connID string, msg *protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conn[connID] = append(n.conn[connID], msg)
}

func (n *RecordingNotifier) SendToGroup(group string, msg *protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dropped[group] {
		return
	}
	n.group[group] = append(n.group[group], msg)
}

func (n *RecordingNotifier) JoinGroup(group, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.members[group] == nil {
		n.members[group] = make(map[string]bool)
	}
	n.members[group][connID] = true
}

func (n *RecordingNotifier) LeaveGroup(group, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.members[group], connID)
}

func (n *RecordingNotifier) DropGroup(group string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.members, group)
	n.dropped[group] = true
}

// ConnMessages messages unicast to connID
func (n *RecordingNotifier) ConnMessages(connID string) []*protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*protocol.Message(nil), n.conn[connID]...)
}

// GroupMessages messages broadcast to group
func (n *RecordingNotifier) GroupMessages(group string) []*protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*protocol.Message(nil), n.group[group]...)
}

// CountGroup number of messages of type t broadcast to group
func (n *RecordingNotifier) CountGroup(group string, t protocol.MessageType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, m := range n.group[group] {
		if m.Type == t {
			count++
		}
	}
	return count
}

// LastGroup the most recent message of type t sent to group, nil if none
func (n *RecordingNotifier) LastGroup(group string, t protocol.MessageType) *protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	msgs := n.group[group]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i]
		}
	}
	return nil
}

// Members connections currently in group
func (n *RecordingNotifier) Members(group string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.members[group]))
	for c := range n.members[group] {
		out = append(out, c)
	}
	return out
}

// Dropped reports whether group was dropped
func (n *RecordingNotifier) Dropped(group string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped[group]
}

// Reset forgets recorded messages, keeping group membership
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conn = make(map[string][]*protocol.Message)
	n.group = make(map[string][]*protocol.Message)
}
