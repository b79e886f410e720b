package orchestrator

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/logging"
    "github.com/example/concierge-orchestrator/internal/models"
)

func TestDemo_FabricatesHandleAndBooks(t *testing.T) {
    cal := &fakeCalendar{}
    now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
    d := &DemoSimulator{
        Correlator: &Correlator{Calendar: cal, Log: logging.Discard()},
        Log:        logging.Discard(),
        Now:        func() time.Time { return now },
    }
    res, err := d.Dispatch(context.Background(), "Book a dental checkup")
    require.NoError(t, err)
    assert.Equal(t, DemoCallID, res.CallID.String())
    assert.Equal(t, DemoAgentID, res.AgentID.String())
    assert.Equal(t, "completed", res.Status)
    assert.Equal(t, "Book a dental checkup", res.Instruction)
    require.Len(t, res.Steps, 9)
    assert.Equal(t, "Initializing AI Concierge Agent...", res.Steps[0].Description)
    assert.Equal(t, "Finalizing booking and notifications...", res.Steps[8].Description)

    d.Wait()
    evs := cal.created()
    require.Len(t, evs, 1)
    assert.Equal(t, "Appointment with Dr. Parul", evs[0].Summary)
    assert.WithinDuration(t, now.Add(time.Hour), evs[0].Start, 0)
    assert.Contains(t, evs[0].Description, "Appointment Type: Dental Checkup\n")
    assert.Contains(t, evs[0].Description, "Address: Rohini Sector 10\n")
}

func TestDemo_WithoutCalendarIsNoOp(t *testing.T) {
    var got models.CorrelationResult
    done := make(chan struct{})
    d := &DemoSimulator{
        Correlator: callbackFunc(func(ctx context.Context, p models.WebhookPayload) models.CorrelationResult {
            got = (&Correlator{Log: logging.Discard()}).HandleCallback(ctx, p)
            close(done)
            return got
        }),
        Log: logging.Discard(),
    }
    _, err := d.Dispatch(context.Background(), "Book a dental checkup")
    require.NoError(t, err)
    <-done
    assert.Equal(t, models.OutcomeReceivedNoOp, got.Outcome)
    assert.Equal(t, ReasonNoCalendar, got.Reason)
}

func TestDemo_RejectsEmptyInstruction(t *testing.T) {
    d := &DemoSimulator{Correlator: &Correlator{}, Log: logging.Discard()}
    _, err := d.Dispatch(context.Background(), " ")
    assert.Equal(t, errs.KindValidation, errs.KindOf(err))
    d.Wait()
}

func TestDemo_RespondsAfterConfiguredDelay(t *testing.T) {
    cal := &fakeCalendar{}
    d := &DemoSimulator{
        Correlator:    &Correlator{Calendar: cal, Log: logging.Discard()},
        CallbackDelay: 10 * time.Millisecond,
        ResponseDelay: 50 * time.Millisecond,
        Log:           logging.Discard(),
    }
    start := time.Now()
    res, err := d.Dispatch(context.Background(), "Book a dental checkup")
    elapsed := time.Since(start)
    require.NoError(t, err)
    assert.Equal(t, DemoCallID, res.CallID.String())
    assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
    assert.Less(t, elapsed, 2*time.Second)

    d.Wait()
    assert.Len(t, cal.created(), 1)
}

func TestDemo_ResponseDelayHonoursCancel(t *testing.T) {
    d := &DemoSimulator{
        Correlator:    &Correlator{Log: logging.Discard()},
        ResponseDelay: time.Hour,
        Log:           logging.Discard(),
    }
    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    _, err := d.Dispatch(ctx, "Book a dental checkup")
    assert.ErrorIs(t, err, context.DeadlineExceeded)
    // the callback is still delivered after the caller gave up
    d.Wait()
}

type callbackFunc func(ctx context.Context, p models.WebhookPayload) models.CorrelationResult

func (f callbackFunc) HandleCallback(ctx context.Context, p models.WebhookPayload) models.CorrelationResult {
    return f(ctx, p)
}
