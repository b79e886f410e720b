package agents

import (
    "context"
    "fmt"
    "log/slog"

    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/tools"
)

type Executor interface {
    Execute(ctx context.Context, step *models.Step, inputs map[string]any) (any, error)
}

// ToolExecutor runs a step through the tool named in step.Tool and records
// the outcome on the step.
type ToolExecutor struct {
    Registry *tools.Registry
    Log      *slog.Logger
}

func (e *ToolExecutor) Execute(ctx context.Context, step *models.Step, inputs map[string]any) (any, error) {
    t, ok := e.Registry.Get(step.Tool)
    if !ok {
        step.Status = models.StatusFailed
        step.Error = "unknown tool: " + step.Tool
        return nil, fmt.Errorf("unknown tool: %s", step.Tool)
    }
    step.Status = models.StatusRunning
    output, logs, err := t.Execute(ctx, inputs)
    if e.Log != nil {
        e.Log.Debug("step executed", "step_id", step.ID, "tool", step.Tool, "logs", logs, "error", err)
    }
    if err != nil {
        step.Status = models.StatusFailed
        step.Error = err.Error()
        return nil, err
    }
    step.Status = models.StatusSuccess
    if s, ok := output.(string); ok { step.Output = preview(s, 500) }
    return output, nil
}

func preview(s string, max int) string {
    r := []rune(s)
    if len(r) <= max { return s }
    return string(r[:max]) + "…"
}
