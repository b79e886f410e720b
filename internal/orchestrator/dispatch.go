package orchestrator

import (
    "context"
    "log/slog"
    "strings"

    "github.com/example/concierge-orchestrator/internal/agents"
    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/omnidim"
)

// DispatchNote accompanies every accepted workflow.
const DispatchNote = "The AI agent will handle the entire workflow including web search, calling, and post-call actions."

const contextInstructionKey = "user_instruction"

// Coordinator turns an instruction into exactly one dispatched call.
type Coordinator interface {
    Dispatch(ctx context.Context, instruction string) (*models.DispatchResult, error)
}

// AgentProvisioner yields the id of the agent calls are dispatched to.
type AgentProvisioner interface {
    GetOrCreateConciergeAgent(ctx context.Context) (models.AgentID, error)
}

// DirectCoordinator hands the whole instruction to the voice agent in one
// call. It returns as soon as the platform accepts the call; the outcome
// arrives later through the webhook.
type DirectCoordinator struct {
    Provisioner AgentProvisioner
    Platform    omnidim.Dispatcher
    Phone       PhonePolicy
    Planner     agents.Planner // optional; steps are advisory
    Ledger      ledger.Ledger  // optional
    Hub         *Hub           // optional
    Log         *slog.Logger
}

func (c *DirectCoordinator) Dispatch(ctx context.Context, instruction string) (*models.DispatchResult, error) {
    if err := validateInstruction(instruction); err != nil {
        return nil, err
    }
    var steps []*models.Step
    if c.Planner != nil {
        planned, err := c.Planner.PlanSteps(ctx, instruction)
        if err != nil {
            c.logger().Warn("planning failed, dispatching without steps", "error", err)
        } else {
            steps = planned
        }
    }
    res, err := c.Call(ctx, instruction)
    if err != nil {
        return nil, err
    }
    res.Steps = steps
    return res, nil
}

// Call provisions the concierge agent and dispatches one call carrying
// instruction. It does not validate or plan.
func (c *DirectCoordinator) Call(ctx context.Context, instruction string) (*models.DispatchResult, error) {
    log := c.logger()
    toNumber := c.Phone.Resolve(instruction)

    agentID, err := c.Provisioner.GetOrCreateConciergeAgent(ctx)
    if err != nil {
        log.Error("provisioning failed", "error", err)
        return nil, err
    }

    req := omnidim.DispatchRequest{
        AgentID:     agentID,
        ToNumber:    toNumber,
        CallContext: map[string]any{contextInstructionKey: instruction},
    }
    log.Info("dispatching call", "agent_id", agentID.String(), "to_number", toNumber)
    task, err := c.Platform.DispatchCall(ctx, req)
    if err != nil {
        log.Error("dispatch failed", "agent_id", agentID.String(), "error", err)
        return nil, errs.Wrap(errs.KindDispatch, "Failed to dispatch call", err)
    }
    if task.AgentID == "" { task.AgentID = agentID }
    if task.ToNumber == "" { task.ToNumber = toNumber }
    if task.Context == nil { task.Context = req.CallContext }
    log.Info("call dispatched", "call_id", task.ID.String(), "status", task.Status)

    res := &models.DispatchResult{
        AgentID:     agentID,
        CallID:      task.ID,
        Status:      task.Status,
        Instruction: instruction,
        Note:        DispatchNote,
    }
    recordDispatch(ctx, c.Ledger, c.Hub, log, *task, res)
    return res, nil
}

func (c *DirectCoordinator) logger() *slog.Logger {
    if c.Log != nil { return c.Log }
    return slog.Default()
}

func validateInstruction(instruction string) error {
    if strings.TrimSpace(instruction) == "" {
        return errs.Validation("Instruction is required.")
    }
    return nil
}

// recordDispatch writes the audit entry and announces the call. Neither can
// fail the dispatch.
func recordDispatch(ctx context.Context, l ledger.Ledger, hub *Hub, log *slog.Logger, task models.CallTask, res *models.DispatchResult) {
    if l != nil {
        if err := l.RecordDispatch(context.WithoutCancel(ctx), task, res.Instruction); err != nil {
            log.Warn("ledger dispatch record failed", "call_id", task.ID.String(), "error", err)
        }
    }
    hub.Publish(Event{Event: EventDispatch, CallID: res.CallID.String(), Payload: res})
}
