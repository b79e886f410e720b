package llm

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "os"
)

type AnthropicClient struct {
    APIKey  string
    Model   string
    BaseURL string
    HTTP    *http.Client
}

func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
    body := map[string]any{
        "model": c.Model,
        "max_tokens": 1024,
        "messages": []map[string]any{{
            "role": "user",
            "content": []map[string]string{{"type": "text", "text": prompt}},
        }},
    }
    if system != "" { body["system"] = system }
    var resp struct{ Content []struct{ Text string `json:"text"` } `json:"content"` }
    if err := c.postJSON(ctx, body, &resp); err != nil { return "", err }
    if len(resp.Content) == 0 { return "", errors.New("no content") }
    return resp.Content[0].Text, nil
}

func (c *AnthropicClient) postJSON(ctx context.Context, body any, out any) error {
    b, _ := json.Marshal(body)
    url := c.BaseURL
    if url == "" { url = os.Getenv("ANTHROPIC_API_URL") }
    if url == "" { url = "https://api.anthropic.com/v1/messages" }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("x-api-key", c.APIKey)
    req.Header.Set("anthropic-version", "2023-06-01")
    req.Header.Set("content-type", "application/json")
    client := c.HTTP
    if client == nil { client = &http.Client{Timeout: clientTimeout()} }
    return doWithRetry(client, req, b, "anthropic", out)
}
