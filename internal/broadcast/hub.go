package broadcast

import (
	"context"
	"sync"
)

// Handler receives events. It runs on the publisher's goroutine and must not block.
type Handler func(Event)

// Hub is the in-process subscriber registry.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
	all    map[int]Handler
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]Handler),
		all:  make(map[int]Handler),
	}
}

// Subscribe registers fn for events about employeeID. The returned func
// removes the subscription and is safe to call more than once.
func (h *Hub) Subscribe(employeeID string, fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	if h.subs[employeeID] == nil {
		h.subs[employeeID] = make(map[int]Handler)
	}
	h.subs[employeeID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[employeeID], id)
			if len(h.subs[employeeID]) == 0 {
				delete(h.subs, employeeID)
			}
		})
	}
}

// SubscribeAll registers fn for every employee.
func (h *Hub) SubscribeAll(fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.all[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.all, id)
		})
	}
}

// Publish delivers e to matching subscribers synchronously. It never fails.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[e.EmployeeID])+len(h.all))
	for _, fn := range h.subs[e.EmployeeID] {
		handlers = append(handlers, fn)
	}
	for _, fn := range h.all {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
	return nil
}

// Subscribers reports how many handlers would receive an event for employeeID.
func (h *Hub) Subscribers(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[employeeID]) + len(h.all)
}
