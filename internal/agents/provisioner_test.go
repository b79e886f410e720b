package agents

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/logging"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/omnidim"
)

// fakeRegistry keeps agents in memory and answers with the wrapped
// {"agents": {"data": [...]}} shape.
type fakeRegistry struct {
    mu        sync.Mutex
    agents    []map[string]any
    creates   int32
    lists     int32
    createRaw string
    listRaw   string
    listErr   error
    delay     time.Duration
    lastSpec  omnidim.AgentSpec
}

func (f *fakeRegistry) ListAgents(ctx context.Context) (json.RawMessage, error) {
    atomic.AddInt32(&f.lists, 1)
    if f.listErr != nil { return nil, f.listErr }
    if f.listRaw != "" { return json.RawMessage(f.listRaw), nil }
    f.mu.Lock()
    defer f.mu.Unlock()
    b, _ := json.Marshal(map[string]any{"agents": map[string]any{"data": f.agents}})
    return b, nil
}

func (f *fakeRegistry) CreateAgent(ctx context.Context, spec omnidim.AgentSpec) (json.RawMessage, error) {
    atomic.AddInt32(&f.creates, 1)
    time.Sleep(f.delay)
    f.mu.Lock()
    defer f.mu.Unlock()
    f.lastSpec = spec
    if f.createRaw != "" { return json.RawMessage(f.createRaw), nil }
    id := 100 + len(f.agents)
    f.agents = append(f.agents, map[string]any{"id": id, "name": "AI Concierge Agent"})
    b, _ := json.Marshal(map[string]any{"success": true, "agent": map[string]any{"json": map[string]any{"id": id}}})
    return b, nil
}

func newProvisioner(reg omnidim.Registry) *Provisioner {
    return &Provisioner{Registry: reg, WebhookURL: "http://localhost:5000/omnidim-webhook", Log: logging.Discard()}
}

func TestProvisioner_ReusesExistingAgent(t *testing.T) {
    reg := &fakeRegistry{agents: []map[string]any{
        {"id": 1, "name": "Sales bot"},
        {"_id": "c-7", "name": "My CONCIERGE"},
    }}
    id, err := newProvisioner(reg).GetOrCreateConciergeAgent(context.Background())
    require.NoError(t, err)
    assert.Equal(t, models.AgentID("c-7"), id)
    assert.EqualValues(t, 0, reg.creates)
}

func TestProvisioner_IdempotentAcrossCalls(t *testing.T) {
    reg := &fakeRegistry{}
    p := newProvisioner(reg)

    first, err := p.GetOrCreateConciergeAgent(context.Background())
    require.NoError(t, err)
    second, err := p.GetOrCreateConciergeAgent(context.Background())
    require.NoError(t, err)

    assert.Equal(t, first, second)
    assert.EqualValues(t, 1, atomic.LoadInt32(&reg.creates))
    assert.Equal(t, "http://localhost:5000/omnidim-webhook", reg.lastSpec.WebhookURL)
}

func TestProvisioner_ConcurrentCallersShareOneCreation(t *testing.T) {
    reg := &fakeRegistry{delay: 50 * time.Millisecond}
    p := newProvisioner(reg)

    var wg sync.WaitGroup
    ids := make([]models.AgentID, 8)
    for i := range ids {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            id, err := p.GetOrCreateConciergeAgent(context.Background())
            assert.NoError(t, err)
            ids[i] = id
        }(i)
    }
    wg.Wait()
    for _, id := range ids { assert.Equal(t, ids[0], id) }
    assert.EqualValues(t, 1, atomic.LoadInt32(&reg.creates))
}

func TestProvisioner_MalformedListIsProvisioningError(t *testing.T) {
    reg := &fakeRegistry{listRaw: `{"agents": "oops"}`}
    _, err := newProvisioner(reg).GetOrCreateConciergeAgent(context.Background())
    require.Error(t, err)
    assert.Equal(t, errs.KindProvisioning, errs.KindOf(err))
    var shapeErr *omnidim.ShapeError
    assert.True(t, errors.As(err, &shapeErr))
    assert.EqualValues(t, 0, reg.creates)
}

func TestProvisioner_CreateWithoutID(t *testing.T) {
    reg := &fakeRegistry{createRaw: `{"success": true, "agent": {"name": "AI Concierge"}}`}
    _, err := newProvisioner(reg).GetOrCreateConciergeAgent(context.Background())
    require.Error(t, err)
    assert.Equal(t, errs.KindProvisioning, errs.KindOf(err))
    assert.Contains(t, err.Error(), "Agent ID not found")
    assert.Equal(t, map[string]any{"success": true, "agent": map[string]any{"name": "AI Concierge"}}, errs.DetailsOf(err))
}

func TestProvisioner_CreateAnsweredWithText(t *testing.T) {
    reg := &fakeRegistry{createRaw: "OK created"}
    _, err := newProvisioner(reg).GetOrCreateConciergeAgent(context.Background())
    require.Error(t, err)
    assert.Equal(t, errs.KindProvisioning, errs.KindOf(err))
    assert.Equal(t, "OK created", errs.DetailsOf(err))
    _, mErr := json.Marshal(errs.DetailsOf(err))
    assert.NoError(t, mErr)
}

func TestProvisioner_RegistryUnavailable(t *testing.T) {
    reg := &fakeRegistry{listErr: errors.New("connection refused")}
    _, err := newProvisioner(reg).GetOrCreateConciergeAgent(context.Background())
    require.Error(t, err)
    assert.Equal(t, "connection refused", errs.DetailsOf(err))
}
