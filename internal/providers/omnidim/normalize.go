package omnidim

import (
    "bytes"
    "encoding/json"
    "fmt"
    "strconv"
    "strings"

    "github.com/example/concierge-orchestrator/internal/models"
)

// ShapeError reports a registry response that could not be read as a list of agents.
type ShapeError struct {
    Raw json.RawMessage
}

func (e *ShapeError) Error() string {
    return "agents is not an array. Full response: " + string(e.Raw)
}

// listKeys are the wrapper keys the registry has been seen to nest agent lists under.
var listKeys = []string{"data", "results", "items"}

// NormalizeAgents flattens a list-agents response into agents. Accepted shapes:
//   [...]
//   {"agents": [...]}
//   {"agents": {"data"|"results"|"items": [...]}}
//   {"data"|"results"|"items": [...]}
// Entries that are not objects are skipped.
func NormalizeAgents(raw json.RawMessage) ([]models.Agent, error) {
    root, err := decode(raw)
    if err != nil { return nil, &ShapeError{Raw: raw} }
    list, ok := findList(root)
    if !ok { return nil, &ShapeError{Raw: raw} }
    out := make([]models.Agent, 0, len(list))
    for _, item := range list {
        m, ok := item.(map[string]any)
        if !ok { continue }
        a := models.Agent{ID: models.AgentID(firstID(m)), Name: str(m["name"])}
        if u := str(m["webhook_url"]); u != "" { a.WebhookURL = u }
        out = append(out, a)
    }
    return out, nil
}

func findList(root any) ([]any, bool) {
    switch t := root.(type) {
    case []any:
        return t, true
    case map[string]any:
        if agents, ok := t["agents"]; ok {
            switch a := agents.(type) {
            case []any:
                return a, true
            case map[string]any:
                for _, k := range listKeys {
                    if l, ok := a[k].([]any); ok { return l, true }
                }
                // an object with no recognised list key holds no agents
                return []any{}, true
            }
            return nil, false
        }
        for _, k := range listKeys {
            if l, ok := t[k].([]any); ok { return l, true }
        }
    }
    return nil, false
}

// ExtractAgentID finds the new agent id in a create-agent response, trying
// agent.id, agent._id, agent.data.id, agent.data._id, agent.json.id and
// finally a top-level id.
func ExtractAgentID(raw json.RawMessage) (models.AgentID, bool) {
    root, err := decode(raw)
    if err != nil { return "", false }
    m, ok := root.(map[string]any)
    if !ok { return "", false }
    if agent, ok := m["agent"].(map[string]any); ok {
        if id := firstID(agent); id != "" { return models.AgentID(id), true }
        for _, k := range []string{"data", "json"} {
            if nested, ok := agent[k].(map[string]any); ok {
                if id := firstID(nested); id != "" { return models.AgentID(id), true }
            }
        }
    }
    if id := firstID(m); id != "" { return models.AgentID(id), true }
    return "", false
}

func decode(raw json.RawMessage) (any, error) {
    dec := json.NewDecoder(bytes.NewReader(raw))
    dec.UseNumber()
    var v any
    if err := dec.Decode(&v); err != nil { return nil, err }
    return v, nil
}

func firstID(m map[string]any) string {
    for _, k := range []string{"id", "_id"} {
        if s := str(m[k]); s != "" { return s }
    }
    return ""
}

func str(v any) string {
    switch t := v.(type) {
    case nil:
        return ""
    case string:
        return strings.TrimSpace(t)
    case json.Number:
        return t.String()
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64)
    case bool, map[string]any, []any:
        return ""
    default:
        return fmt.Sprint(t)
    }
}
