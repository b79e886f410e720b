// Package omnidim is the HTTP client for the voice-agent platform: the agent
// registry and the call dispatch endpoint.
package omnidim

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/example/concierge-orchestrator/internal/models"
)

// Registry lists and creates execution agents. Responses are returned raw
// because their container shape varies; see NormalizeAgents and ExtractAgentID.
type Registry interface {
    ListAgents(ctx context.Context) (json.RawMessage, error)
    CreateAgent(ctx context.Context, spec AgentSpec) (json.RawMessage, error)
}

// Dispatcher submits one outbound call.
type Dispatcher interface {
    DispatchCall(ctx context.Context, req DispatchRequest) (*models.CallTask, error)
}

type AgentSpec struct {
    WebhookURL string `json:"webhook_url"`
}

type DispatchRequest struct {
    AgentID     models.AgentID `json:"agent_id"`
    ToNumber    string         `json:"to_number"`
    CallContext map[string]any `json:"call_context"`
}

// StatusError is a non-2xx answer from the platform. Body holds the decoded
// JSON payload when there was one, else the raw text.
type StatusError struct {
    Op         string
    StatusCode int
    Body       any
}

func (e *StatusError) Error() string {
    b, _ := json.Marshal(e.Body)
    return fmt.Sprintf("%s: omnidim status %d: %s", e.Op, e.StatusCode, b)
}

type Client struct {
    RegistryURL string
    DispatchURL string
    HTTP        *http.Client
}

func NewClient(registryURL, dispatchURL string, timeout time.Duration) *Client {
    if dispatchURL == "" { dispatchURL = registryURL }
    return &Client{
        RegistryURL: strings.TrimRight(registryURL, "/"),
        DispatchURL: strings.TrimRight(dispatchURL, "/"),
        HTTP:        &http.Client{Timeout: timeout},
    }
}

func (c *Client) ListAgents(ctx context.Context) (json.RawMessage, error) {
    return c.do(ctx, "list agents", http.MethodGet, c.RegistryURL+"/agents", nil)
}

func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (json.RawMessage, error) {
    return c.do(ctx, "create agent", http.MethodPost, c.RegistryURL+"/agents/create-concierge", spec)
}

func (c *Client) DispatchCall(ctx context.Context, req DispatchRequest) (*models.CallTask, error) {
    raw, err := c.do(ctx, "dispatch call", http.MethodPost, c.DispatchURL+"/calls", req)
    if err != nil { return nil, err }
    var resp struct {
        Call *struct {
            ID     models.FlexID `json:"id"`
            Status string        `json:"status"`
        } `json:"call"`
    }
    if err := json.Unmarshal(raw, &resp); err != nil {
        return nil, fmt.Errorf("decode dispatch response: %w", err)
    }
    if resp.Call == nil {
        return nil, &StatusError{Op: "dispatch call", StatusCode: http.StatusOK, Body: DecodeBody(raw)}
    }
    return &models.CallTask{
        ID:       resp.Call.ID,
        AgentID:  req.AgentID,
        ToNumber: req.ToNumber,
        Status:   resp.Call.Status,
        Context:  req.CallContext,
    }, nil
}

func (c *Client) do(ctx context.Context, op, method, url string, body any) (json.RawMessage, error) {
    var rd io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { return nil, fmt.Errorf("%s: marshal: %w", op, err) }
        rd = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, url, rd)
    if err != nil { return nil, fmt.Errorf("%s: %w", op, err) }
    if body != nil { req.Header.Set("Content-Type", "application/json") }
    req.Header.Set("Accept", "application/json")
    client := c.HTTP
    if client == nil { client = http.DefaultClient }
    res, err := client.Do(req)
    if err != nil { return nil, fmt.Errorf("%s: %w", op, err) }
    defer res.Body.Close()
    // limit body to 2MB to avoid memory blowup
    b, err := io.ReadAll(io.LimitReader(res.Body, 2<<20))
    if err != nil { return nil, fmt.Errorf("%s: read body: %w", op, err) }
    if res.StatusCode < 200 || res.StatusCode >= 300 {
        return nil, &StatusError{Op: op, StatusCode: res.StatusCode, Body: DecodeBody(b)}
    }
    return json.RawMessage(b), nil
}

// DecodeBody returns the decoded JSON value of a platform response, or its
// text when it is not JSON.
func DecodeBody(b []byte) any {
    var v any
    if err := json.Unmarshal(b, &v); err == nil { return v }
    return string(b)
}

// Payload exposes the upstream body for error reporting.
func (e *StatusError) Payload() any { return e.Body }
