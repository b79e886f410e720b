package tools

import (
    "context"
    "errors"
    "strings"

    "github.com/example/concierge-orchestrator/internal/models"
)

// DispatchFunc submits the instruction to the voice platform.
type DispatchFunc func(ctx context.Context, instruction string) (*models.DispatchResult, error)

// DispatchCallTool hands the instruction to the voice agent. Output is the
// *models.DispatchResult.
type DispatchCallTool struct{ Dispatch DispatchFunc }

func (t *DispatchCallTool) Name() string { return "dispatch_call" }

func (t *DispatchCallTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
    if t.Dispatch == nil { return nil, "", errors.New("dispatcher not set") }
    instruction, _ := inputs["instruction"].(string)
    if strings.TrimSpace(instruction) == "" { return nil, "", errors.New("missing instruction") }
    res, err := t.Dispatch(ctx, instruction)
    if err != nil { return nil, "", err }
    return res, "call_id=" + res.CallID.String() + " status=" + res.Status, nil
}
