package agents

import (
    "context"
    "fmt"
    "regexp"
    "strings"
    "unicode"

    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/llm"
)

const plannerSystemRole = "You are an expert workflow planner."

// LLMPlanner asks a completion provider to break an instruction into steps.
type LLMPlanner struct { Client llm.Client }

// PlanSteps returns the normalized steps. An empty or unusable completion
// yields an empty list; only a provider failure is an error.
func (p *LLMPlanner) PlanSteps(ctx context.Context, instruction string) ([]*models.Step, error) {
    raw, err := p.Client.Complete(ctx, plannerSystemRole, buildPlanPrompt(instruction))
    if err != nil {
        return nil, errs.Wrap(errs.KindPlanning, "Failed to plan workflow steps", err)
    }
    return NormalizeSteps(raw), nil
}

func buildPlanPrompt(instruction string) string {
    return fmt.Sprintf(`Break the following user instruction into a short ordered list of concrete, actionable steps
that a personal concierge agent would take (for example: search, call, book, add to calendar).
Output one step per line, numbered "1.", "2.", ... with no preamble and no closing remarks.
Where it helps, write a step as "Action: details".

Instruction: %s`, instruction)
}

var (
    // "1.", "2)", "Step 3:"
    ordinalRe = regexp.MustCompile(`^(?i:step\s*)?\d+\s*[.):]`)
    bulletRe  = regexp.MustCompile(`^[-*•+]+\s*`)
    fenceRe  = regexp.MustCompile("^`{3}")
    // "Action: details" with a short action label
    actionRe = regexp.MustCompile(`^([A-Za-z][A-Za-z /&'-]{0,39}):\s+(.+)$`)
)

// NormalizeSteps splits raw completion text into steps: one per non-blank
// line, ordinal and bullet markers removed, order kept, duplicates kept.
func NormalizeSteps(raw string) []*models.Step {
    steps := []*models.Step{}
    for _, line := range strings.Split(raw, "\n") {
        text := stripMarkers(line)
        if text == "" || fenceRe.MatchString(text) { continue }
        steps = append(steps, newStep(len(steps)+1, text))
    }
    return steps
}

func stripMarkers(line string) string {
    text := strings.TrimSpace(line)
    for {
        next := text
        if loc := ordinalRe.FindStringIndex(next); loc != nil {
            // "1.5 hours" and "10:30" are values, not ordinals
            if rest := next[loc[1]:]; rest == "" || !unicode.IsDigit(rune(rest[0])) { next = rest }
        }
        next = strings.TrimSpace(bulletRe.ReplaceAllString(next, ""))
        if next == text { return text }
        text = next
    }
}

func newStep(n int, text string) *models.Step {
    s := &models.Step{ID: fmt.Sprintf("step%d", n), Description: text, Status: models.StatusPending}
    if m := actionRe.FindStringSubmatch(text); m != nil {
        s.Action = strings.TrimSpace(m[1])
        s.Details = strings.TrimSpace(m[2])
    }
    return s
}
