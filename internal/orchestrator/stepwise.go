package orchestrator

import (
    "context"
    "log/slog"
    "regexp"

    "github.com/example/concierge-orchestrator/internal/agents"
    "github.com/example/concierge-orchestrator/internal/models"
)

const (
    ToolDispatchCall = "dispatch_call"
    ToolWebSearch    = "web_search"
    ToolFetchPage    = "fetch_page"
    ToolNote         = "note"
)

// Rule routes a step to a tool when Match accepts the step text.
type Rule struct {
    Name   string
    Match  *regexp.Regexp
    Tool   string
    Inputs func(step *models.Step, instruction string) map[string]any
}

// DefaultRules is the routing table in precedence order: the first matching
// rule wins, so a step that both searches and calls is a call.
func DefaultRules() []Rule {
    return []Rule{
        {
            Name:  "call",
            Match: regexp.MustCompile(`(?i)\b(call|phone|dial|contact)`),
            Tool:  ToolDispatchCall,
            Inputs: func(_ *models.Step, instruction string) map[string]any {
                return map[string]any{"instruction": instruction}
            },
        },
        {
            Name:  "visit",
            Match: urlRe,
            Tool:  ToolFetchPage,
            Inputs: func(step *models.Step, _ string) map[string]any {
                return map[string]any{"url": urlRe.FindString(step.Description)}
            },
        },
        {
            Name:  "search",
            Match: regexp.MustCompile(`(?i)\b(search|find|look\s?up|nearby)`),
            Tool:  ToolWebSearch,
            Inputs: func(step *models.Step, _ string) map[string]any {
                return map[string]any{"query": stepText(step)}
            },
        },
        {
            Name:  "booking",
            Match: regexp.MustCompile(`(?i)\b(calendar|schedule|book)`),
            Tool:  ToolNote,
            Inputs: func(step *models.Step, _ string) map[string]any {
                return map[string]any{"text": "deferred to post-call webhook: " + step.Description}
            },
        },
    }
}

var urlRe = regexp.MustCompile(`https?://[^\s"'<>)]+`)

var fallbackRule = Rule{
    Name: "default",
    Tool: ToolNote,
    Inputs: func(step *models.Step, _ string) map[string]any {
        return map[string]any{"text": step.Description}
    },
}

// Route returns the first rule matching step, or the note fallback.
func Route(rules []Rule, step *models.Step) Rule {
    text := step.Description
    for _, r := range rules {
        if r.Match != nil && r.Match.MatchString(text) { return r }
    }
    return fallbackRule
}

func stepText(step *models.Step) string {
    if step.Details != "" { return step.Details }
    return step.Description
}

// StepwiseCoordinator plans the instruction and runs each step through the
// tool its rule names. The call step performs the workflow's only dispatch;
// when no step asks for a call one is placed after the last step.
type StepwiseCoordinator struct {
    Planner  agents.Planner
    Executor agents.Executor // must serve ToolDispatchCall
    Rules    []Rule          // DefaultRules when nil
    Hub      *Hub            // optional
    Log      *slog.Logger
}

func (c *StepwiseCoordinator) Dispatch(ctx context.Context, instruction string) (*models.DispatchResult, error) {
    if err := validateInstruction(instruction); err != nil {
        return nil, err
    }
    log := c.logger()
    rules := c.Rules
    if rules == nil { rules = DefaultRules() }

    steps, err := c.Planner.PlanSteps(ctx, instruction)
    if err != nil {
        log.Warn("planning failed, dispatching without steps", "error", err)
        steps = nil
    }

    var res *models.DispatchResult
    for _, step := range steps {
        rule := Route(rules, step)
        step.Tool = rule.Tool
        if rule.Tool == ToolDispatchCall && res != nil {
            step.Status = models.StatusSkipped
            step.Output = "call already dispatched"
            continue
        }
        out, err := c.Executor.Execute(ctx, step, rule.Inputs(step, instruction))
        if rule.Tool == ToolDispatchCall {
            if err != nil { return nil, err }
            res = out.(*models.DispatchResult)
            step.Output = "call_id=" + res.CallID.String()
            continue
        }
        if err != nil {
            log.Warn("step failed", "step_id", step.ID, "tool", rule.Tool, "rule", rule.Name, "error", err)
        }
    }

    if res == nil {
        trailing := &models.Step{ID: "dispatch", Description: "Dispatch the concierge call", Tool: ToolDispatchCall}
        out, err := c.Executor.Execute(ctx, trailing, map[string]any{"instruction": instruction})
        if err != nil { return nil, err }
        res = out.(*models.DispatchResult)
    }

    res.Steps = steps
    callID := res.CallID.String()
    for _, step := range steps {
        c.Hub.Publish(Event{Event: EventStepStatus, CallID: callID, Payload: step})
    }
    return res, nil
}

func (c *StepwiseCoordinator) logger() *slog.Logger {
    if c.Log != nil { return c.Log }
    return slog.Default()
}
