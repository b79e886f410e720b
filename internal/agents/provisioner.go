package agents

import (
    "context"
    "log/slog"
    "strings"

    "golang.org/x/sync/singleflight"

    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/omnidim"
)

// ConciergeMarker is the case-insensitive name fragment identifying the concierge agent.
const ConciergeMarker = "concierge"

// Provisioner finds or creates the single concierge agent. The registry is
// the source of truth; nothing is cached between calls. Concurrent callers
// share one in-flight find-or-create.
type Provisioner struct {
    Registry   omnidim.Registry
    WebhookURL string
    Log        *slog.Logger

    group singleflight.Group
}

func (p *Provisioner) GetOrCreateConciergeAgent(ctx context.Context) (models.AgentID, error) {
    // detached so one caller's cancellation does not fail the callers sharing its flight
    flightCtx := context.WithoutCancel(ctx)
    v, err, shared := p.group.Do(ConciergeMarker, func() (any, error) {
        return p.findOrCreate(flightCtx)
    })
    if err != nil {
        return "", err
    }
    if shared && p.Log != nil {
        p.Log.Debug("joined in-flight concierge provisioning")
    }
    return v.(models.AgentID), nil
}

func (p *Provisioner) findOrCreate(ctx context.Context) (models.AgentID, error) {
    raw, err := p.Registry.ListAgents(ctx)
    if err != nil {
        return "", provisioningErr(err)
    }
    agents, err := omnidim.NormalizeAgents(raw)
    if err != nil {
        return "", provisioningErr(err)
    }
    for _, a := range agents {
        if a.ID != "" && strings.Contains(strings.ToLower(a.Name), ConciergeMarker) {
            p.logger().Info("found existing concierge agent", "agent_id", a.ID.String())
            return a.ID, nil
        }
    }

    p.logger().Info("creating new concierge agent", "webhook_url", p.WebhookURL)
    created, err := p.Registry.CreateAgent(ctx, omnidim.AgentSpec{WebhookURL: p.WebhookURL})
    if err != nil {
        return "", provisioningErr(err)
    }
    id, ok := omnidim.ExtractAgentID(created)
    if !ok {
        e := errs.Wrap(errs.KindProvisioning, "Failed to get or create concierge agent: Agent ID not found. Full response: "+string(created), nil)
        e.Details = omnidim.DecodeBody(created)
        return "", e
    }
    p.logger().Info("concierge agent created", "agent_id", id.String())
    return id, nil
}

func (p *Provisioner) logger() *slog.Logger {
    if p.Log != nil { return p.Log }
    return slog.Default()
}

func provisioningErr(err error) error {
    return errs.Wrap(errs.KindProvisioning, "Failed to get or create concierge agent", err)
}
