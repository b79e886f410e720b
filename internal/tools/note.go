package tools

import (
    "context"
    "fmt"
)

// NoteTool acknowledges a step that needs no local action, such as a booking
// the voice agent completes on the call.
type NoteTool struct{}

func (e *NoteTool) Name() string { return "note" }

func (e *NoteTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
    text, _ := inputs["text"].(string)
    out := fmt.Sprintf("noted: %s", text)
    return out, "", nil
}
