package llm

import (
    "context"
)

// Client is the text-completion capability used by the step planner.
// Any provider implementation should satisfy this.
type Client interface {
    Complete(ctx context.Context, system, prompt string) (string, error)
}
