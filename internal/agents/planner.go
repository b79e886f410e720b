package agents

import (
    "context"

    "github.com/example/concierge-orchestrator/internal/models"
)

// Planner turns an instruction into an ordered list of advisory steps.
type Planner interface {
    PlanSteps(ctx context.Context, instruction string) ([]*models.Step, error)
}

// StaticPlanner returns a fixed step list regardless of the instruction.
// The demo simulator uses it for its canned progress display.
type StaticPlanner struct {
    Lines []string
}

func (p *StaticPlanner) PlanSteps(ctx context.Context, instruction string) ([]*models.Step, error) {
    steps := make([]*models.Step, 0, len(p.Lines))
    for _, l := range p.Lines {
        steps = append(steps, newStep(len(steps)+1, l))
    }
    return steps, nil
}
