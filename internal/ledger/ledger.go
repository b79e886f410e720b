// Package ledger keeps an audit record of dispatched calls and the outcome of
// their callbacks. It is write-mostly: correlation never consults it before
// acting, so a missing or stale entry changes nothing about webhook handling.
package ledger

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/example/concierge-orchestrator/internal/models"
)

var ErrNotFound = errors.New("call not found")

type Entry struct {
    CallID       string    `json:"call_id"`
    AgentID      string    `json:"agent_id,omitempty"`
    ToNumber     string    `json:"to_number,omitempty"`
    Status       string    `json:"status,omitempty"`
    Instruction  string    `json:"instruction,omitempty"`
    DispatchedAt time.Time `json:"dispatched_at,omitzero"`

    Outcome      string    `json:"outcome,omitempty"`
    EventID      string    `json:"event_id,omitempty"`
    Reason       string    `json:"reason,omitempty"`
    Error        string    `json:"error,omitempty"`
    CorrelatedAt time.Time `json:"correlated_at,omitzero"`
}

type Ledger interface {
    RecordDispatch(ctx context.Context, task models.CallTask, instruction string) error
    RecordOutcome(ctx context.Context, callID string, res models.CorrelationResult) error
    Get(ctx context.Context, callID string) (*Entry, error)
    Close() error
}

func dispatchEntry(task models.CallTask, instruction string, now time.Time) Entry {
    return Entry{
        CallID:       task.ID.String(),
        AgentID:      task.AgentID.String(),
        ToNumber:     task.ToNumber,
        Status:       task.Status,
        Instruction:  instruction,
        DispatchedAt: now,
    }
}

func (e *Entry) applyOutcome(res models.CorrelationResult, now time.Time) {
    e.Outcome = string(res.Outcome)
    e.EventID = res.EventID
    e.Reason = res.Reason
    e.Error = res.Error
    e.CorrelatedAt = now
}

// MemoryLedger is the default, process-local ledger.
type MemoryLedger struct {
    mu      sync.RWMutex
    entries map[string]*Entry
    now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
    return &MemoryLedger{entries: map[string]*Entry{}, now: time.Now}
}

func (m *MemoryLedger) RecordDispatch(ctx context.Context, task models.CallTask, instruction string) error {
    e := dispatchEntry(task, instruction, m.now())
    m.mu.Lock()
    if prev, ok := m.entries[e.CallID]; ok && !prev.CorrelatedAt.IsZero() {
        // a callback overtook the dispatch record; keep its outcome
        e.Outcome, e.EventID, e.Reason, e.Error, e.CorrelatedAt = prev.Outcome, prev.EventID, prev.Reason, prev.Error, prev.CorrelatedAt
    }
    m.entries[e.CallID] = &e
    m.mu.Unlock()
    return nil
}

func (m *MemoryLedger) RecordOutcome(ctx context.Context, callID string, res models.CorrelationResult) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.entries[callID]
    if !ok {
        e = &Entry{CallID: callID}
        m.entries[callID] = e
    }
    e.applyOutcome(res, m.now())
    return nil
}

func (m *MemoryLedger) Get(ctx context.Context, callID string) (*Entry, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    e, ok := m.entries[callID]
    if !ok { return nil, ErrNotFound }
    cp := *e
    return &cp, nil
}

func (m *MemoryLedger) Close() error { return nil }
