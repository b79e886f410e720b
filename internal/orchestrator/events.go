package orchestrator

import (
    "encoding/json"
    "sync"
)

// Event names published on the hub.
const (
    EventDispatch   = "dispatch"
    EventStepStatus = "step_status"
    EventBooking    = "booking"
)

// Event is a generic SSE payload wrapper.
type Event struct {
    Event   string `json:"event"`
    CallID  string `json:"call_id"`
    Payload any    `json:"payload,omitempty"`
}

type subscriber chan []byte

// Hub fans progress events out to subscribers of one call id. Delivery is
// best-effort: a slow subscriber drops events rather than blocking publishers.
type Hub struct {
    mu   sync.RWMutex
    subs map[string]map[subscriber]struct{} // callID -> set of subscribers
}

func NewHub() *Hub { return &Hub{subs: map[string]map[subscriber]struct{}{}} }

// Subscribe returns a channel carrying JSON-encoded events for callID. The
// caller must call the returned unsubscribe func when done.
func (h *Hub) Subscribe(callID string) (<-chan []byte, func()) {
    ch := make(subscriber, 16)
    h.mu.Lock()
    set := h.subs[callID]
    if set == nil { set = map[subscriber]struct{}{}; h.subs[callID] = set }
    set[ch] = struct{}{}
    h.mu.Unlock()
    var once sync.Once
    unsubscribe := func() {
        once.Do(func() {
            h.mu.Lock()
            if set, ok := h.subs[callID]; ok {
                delete(set, ch)
                if len(set) == 0 { delete(h.subs, callID) }
            }
            close(ch)
            h.mu.Unlock()
        })
    }
    return ch, unsubscribe
}

// Publish is a no-op on a nil hub so coordinators can run without one.
func (h *Hub) Publish(ev Event) {
    if h == nil || ev.CallID == "" { return }
    b, err := json.Marshal(ev)
    if err != nil { return }
    h.mu.RLock()
    for ch := range h.subs[ev.CallID] {
        // non-blocking send
        select { case ch <- b: default: }
    }
    h.mu.RUnlock()
}

func (h *Hub) subscribers(callID string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.subs[callID])
}
