package orchestrator

import (
    "context"
    "log/slog"
    "sync"
    "time"

    "github.com/example/concierge-orchestrator/internal/agents"
    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/models"
)

const (
    DemoCallID  = "demo-call-123"
    DemoAgentID = "9999"
    demoStatus  = "completed"
)

var demoSteps = []string{
    "Initializing AI Concierge Agent...",
    "Analyzing user instruction...",
    "Searching the web for relevant businesses...",
    "Selecting the best match...",
    "Placing call to the business...",
    "Negotiating appointment time...",
    "Confirming appointment details...",
    "Creating calendar event...",
    "Finalizing booking and notifications...",
}

// DemoSimulator stands in for the voice platform. It answers like a real
// dispatch and later feeds a synthetic callback through the same correlator
// the webhook endpoint uses.
type DemoSimulator struct {
    Correlator    CallbackHandler
    CallbackDelay time.Duration
    ResponseDelay time.Duration
    Ledger        ledger.Ledger // optional
    Hub           *Hub          // optional
    Log           *slog.Logger
    Now           func() time.Time

    wg sync.WaitGroup
}

func (d *DemoSimulator) Dispatch(ctx context.Context, instruction string) (*models.DispatchResult, error) {
    if err := validateInstruction(instruction); err != nil {
        return nil, err
    }
    log := d.logger()
    log.Info("demo mode: simulating workflow", "instruction", instruction)

    steps, _ := (&agents.StaticPlanner{Lines: demoSteps}).PlanSteps(ctx, instruction)
    for _, s := range steps { s.Status = models.StatusSuccess }
    res := &models.DispatchResult{
        AgentID:     DemoAgentID,
        CallID:      models.ID(DemoCallID),
        Status:      demoStatus,
        Instruction: instruction,
        Note:        DispatchNote,
        Steps:       steps,
    }
    task := models.CallTask{
        ID:      models.ID(DemoCallID),
        AgentID: DemoAgentID,
        Status:  demoStatus,
        Context: map[string]any{contextInstructionKey: instruction},
    }
    recordDispatch(ctx, d.Ledger, d.Hub, log, task, res)

    d.wg.Add(1)
    go d.deliverCallback(context.WithoutCancel(ctx))

    if d.ResponseDelay > 0 {
        t := time.NewTimer(d.ResponseDelay)
        defer t.Stop()
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-t.C:
        }
    }
    return res, nil
}

// Wait blocks until every scheduled synthetic callback has been delivered.
func (d *DemoSimulator) Wait() { d.wg.Wait() }

func (d *DemoSimulator) deliverCallback(ctx context.Context) {
    defer d.wg.Done()
    if d.CallbackDelay > 0 { time.Sleep(d.CallbackDelay) }
    payload := d.payload()
    res := d.Correlator.HandleCallback(ctx, payload)
    d.logger().Info("demo callback delivered", "outcome", string(res.Outcome), "event_id", res.EventID, "reason", res.Reason)
}

func (d *DemoSimulator) payload() models.WebhookPayload {
    now := time.Now
    if d.Now != nil { now = d.Now }
    return models.WebhookPayload{
        CallID:  models.ID(DemoCallID),
        AgentID: DemoAgentID,
        ExtractedVariables: models.ExtractedVariables{
            models.VarAppointmentDate:     now().Add(time.Hour).UTC().Format(time.RFC3339),
            models.VarBusinessName:        "Dr. Parul",
            models.VarBusinessPhone:       "+91 9319063787",
            models.VarBusinessAddress:     "Rohini Sector 10",
            models.VarAppointmentType:     "Dental Checkup",
            models.VarSpecialInstructions: "Arrive 10 minutes early",
        },
        Summary:    "Appointment booked successfully",
        Transcript: "This is a simulated transcript.",
    }
}

func (d *DemoSimulator) logger() *slog.Logger {
    if d.Log != nil { return d.Log }
    return slog.Default()
}
