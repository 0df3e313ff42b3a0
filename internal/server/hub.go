package server

import (
	"sync"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/types"
)

// Hub tracks live connections and the session groups they belong to. It is
// the engine's notifier: sends never block and happen outside the hub lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]types.ClientInterface
	groups  map[string]map[string]struct{}
	member  map[string]map[string]struct{} // conn -> groups
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]types.ClientInterface),
		groups:  make(map[string]map[string]struct{}),
		member:  make(map[string]map[string]struct{}),
	}
}

// Register adds a connection
func (h *Hub) Register(c types.ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.GetID()] = c
}

// Unregister removes a connection and its group memberships
func (h *Hub) Unregister(connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, ok := h.clients[connID]
	delete(h.clients, connID)
	for group := range h.member[connID] {
		delete(h.groups[group], connID)
		if len(h.groups[group]) == 0 {
			delete(h.groups, group)
		}
	}
	delete(h.member, connID)
	return ok
}

// Count number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize number of connections in group
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) SendToConn(connID string, msg *protocol.Message) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.SendMessage(msg)
	}
}

func (h *Hub) SendToGroup(group string, msg *protocol.Message) {
	h.mu.RLock()
	targets := make([]types.ClientInterface, 0, len(h.groups[group]))
	for connID := range h.groups[group] {
		if c, ok := h.clients[connID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.SendMessage(msg)
	}
}

// JoinGroup is ignored for connections that already went away.
func (h *Hub) JoinGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]struct{})
	}
	h.groups[group][connID] = struct{}{}
	if h.member[connID] == nil {
		h.member[connID] = make(map[string]struct{})
	}
	h.member[connID][group] = struct{}{}
}

func (h *Hub) LeaveGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups[group], connID)
	if len(h.groups[group]) == 0 {
		delete(h.groups, group)
	}
	delete(h.member[connID], group)
}

func (h *Hub) DropGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.groups[group] {
		delete(h.member[connID], group)
	}
	delete(h.groups, group)
}

// Broadcast sends msg to every connection
func (h *Hub) Broadcast(msg *protocol.Message) {
	for _, c := range h.snapshot() {
		c.SendMessage(msg)
	}
}

// CloseAll closes every connection
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		c.Close()
	}
}

func (h *Hub) snapshot() []types.ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]types.ClientInterface, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}
