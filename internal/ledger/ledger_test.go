package ledger

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/example/concierge-orchestrator/internal/models"
)

func TestMemoryLedger_DispatchThenOutcome(t *testing.T) {
    l := NewMemoryLedger()
    ctx := context.Background()
    task := models.CallTask{ID: models.ID("c1"), AgentID: "9", ToNumber: "+15551234567", Status: "queued"}
    require.NoError(t, l.RecordDispatch(ctx, task, "book a dentist"))
    require.NoError(t, l.RecordOutcome(ctx, "c1", models.CorrelationResult{Outcome: models.OutcomeBooked, EventID: "evt"}))

    e, err := l.Get(ctx, "c1")
    require.NoError(t, err)
    assert.Equal(t, "book a dentist", e.Instruction)
    assert.Equal(t, "booked", e.Outcome)
    assert.Equal(t, "evt", e.EventID)
    assert.False(t, e.CorrelatedAt.IsZero())
}

func TestMemoryLedger_OutcomeForUnknownCall(t *testing.T) {
    l := NewMemoryLedger()
    ctx := context.Background()
    require.NoError(t, l.RecordOutcome(ctx, "stale", models.CorrelationResult{Outcome: models.OutcomeReceivedNoOp, Reason: "no appointment details"}))
    e, err := l.Get(ctx, "stale")
    require.NoError(t, err)
    assert.Empty(t, e.Instruction)
    assert.Equal(t, "received-no-op", e.Outcome)

    // a late dispatch record keeps the outcome already seen
    require.NoError(t, l.RecordDispatch(ctx, models.CallTask{ID: models.ID("stale"), Status: "queued"}, "x"))
    e, _ = l.Get(ctx, "stale")
    assert.Equal(t, "received-no-op", e.Outcome)
    assert.Equal(t, "x", e.Instruction)
}

func TestMemoryLedger_NotFound(t *testing.T) {
    _, err := NewMemoryLedger().Get(context.Background(), "nope")
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisFieldMapping(t *testing.T) {
    now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
    e := dispatchEntry(models.CallTask{ID: models.NumericID("42"), AgentID: "7", ToNumber: "+1", Status: "queued"}, "do it", now)
    fields := map[string]string{"call_id": "42"}
    for k, v := range dispatchFields(e) { fields[k] = v.(string) }
    var o Entry
    o.applyOutcome(models.CorrelationResult{Outcome: models.OutcomeReceivedFailed, Error: "boom"}, now.Add(time.Hour))
    for k, v := range outcomeFields(o) { fields[k] = v.(string) }

    got := entryFromFields(fields)
    assert.Equal(t, "42", got.CallID)
    assert.Equal(t, "7", got.AgentID)
    assert.Equal(t, "do it", got.Instruction)
    assert.Equal(t, now, got.DispatchedAt)
    assert.Equal(t, "received-but-failed", got.Outcome)
    assert.Equal(t, "boom", got.Error)
    assert.Equal(t, now.Add(time.Hour), got.CorrelatedAt)
}
