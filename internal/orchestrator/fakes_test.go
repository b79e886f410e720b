package orchestrator

import (
    "context"
    "errors"
    "strings"
    "sync"

    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/omnidim"
)

type fakeProvisioner struct {
    id    models.AgentID
    err   error
    calls int
}

func (f *fakeProvisioner) GetOrCreateConciergeAgent(ctx context.Context) (models.AgentID, error) {
    f.calls++
    return f.id, f.err
}

type fakeDispatcher struct {
    mu   sync.Mutex
    reqs []omnidim.DispatchRequest
    err  error
    id   models.FlexID
}

func (f *fakeDispatcher) DispatchCall(ctx context.Context, req omnidim.DispatchRequest) (*models.CallTask, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.reqs = append(f.reqs, req)
    if f.err != nil { return nil, f.err }
    id := f.id
    if id.IsZero() { id = models.ID("call-1") }
    return &models.CallTask{ID: id, Status: "queued"}, nil
}

func (f *fakeDispatcher) count() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.reqs)
}

type fakeCalendar struct {
    mu     sync.Mutex
    events []models.CalendarEvent
    err    error
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil { return "", f.err }
    f.events = append(f.events, ev)
    return "evt-" + strings.Repeat("x", len(f.events)), nil
}

func (f *fakeCalendar) created() []models.CalendarEvent {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]models.CalendarEvent(nil), f.events...)
}

type fakePlanner struct {
    lines []string
    err   error
}

func (f *fakePlanner) PlanSteps(ctx context.Context, instruction string) ([]*models.Step, error) {
    if f.err != nil { return nil, f.err }
    steps := make([]*models.Step, len(f.lines))
    for i, l := range f.lines {
        steps[i] = &models.Step{ID: "s" + string(rune('1'+i)), Description: l, Status: models.StatusPending}
    }
    return steps, nil
}

var errUpstream = errors.New("upstream down")
