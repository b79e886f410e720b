package llm

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "time"
)

type OpenAIClient struct {
    APIKey  string
    Model   string
    BaseURL string
    HTTP    *http.Client
}

func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
    msgs := []map[string]string{}
    if system != "" { msgs = append(msgs, map[string]string{"role": "system", "content": system}) }
    msgs = append(msgs, map[string]string{"role": "user", "content": prompt})
    body := map[string]any{
        "model":       c.Model,
        "messages":    msgs,
        "temperature": 0.2,
    }
    var resp struct{
        Choices []struct{ Message struct{ Content string `json:"content"` } `json:"message"` } `json:"choices"`
    }
    if err := c.postJSON(ctx, c.endpoint("/v1/chat/completions"), body, &resp); err != nil {
        return "", err
    }
    if len(resp.Choices) == 0 { return "", errors.New("no choices") }
    return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) postJSON(ctx context.Context, url string, body any, out any) error {
    b, _ := json.Marshal(body)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Authorization", "Bearer "+c.APIKey)
    req.Header.Set("Content-Type", "application/json")
    return doWithRetry(c.httpClient(), req, b, "openai", out)
}

func (c *OpenAIClient) httpClient() *http.Client {
    if c.HTTP != nil { return c.HTTP }
    return &http.Client{Timeout: clientTimeout()}
}

func (c *OpenAIClient) endpoint(path string) string {
    base := c.BaseURL
    if base == "" { base = os.Getenv("OPENAI_API_BASE") }
    if base == "" { base = "https://api.openai.com" }
    return base + path
}

// doWithRetry sends req, retrying timeouts, 408, 429 and 5xx up to three times.
func doWithRetry(client *http.Client, req *http.Request, body []byte, provider string, out any) error {
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        r := req.Clone(req.Context())
        r.Body = nopCloser(body)
        res, err := client.Do(r)
        if err != nil {
            lastErr = err
            if isTimeout(err) { sleep(req.Context(), backoff(attempt)); continue }
            return err
        }
        if res.StatusCode >= 200 && res.StatusCode < 300 {
            err := json.NewDecoder(res.Body).Decode(out)
            res.Body.Close()
            return err
        }
        var eresp map[string]any
        _ = json.NewDecoder(res.Body).Decode(&eresp)
        res.Body.Close()
        lastErr = fmt.Errorf("%s status %d: %v", provider, res.StatusCode, eresp)
        if res.StatusCode == 408 || res.StatusCode == 429 || (res.StatusCode >= 500 && res.StatusCode <= 599) {
            sleep(req.Context(), backoff(attempt))
            continue
        }
        return lastErr
    }
    return lastErr
}

func nopCloser(b []byte) io.ReadCloser { return io.NopCloser(bytes.NewReader(b)) }

func clientTimeout() time.Duration {
    if v := os.Getenv("LLM_HTTP_TIMEOUT_MS"); v != "" {
        if ms, err := time.ParseDuration(v+"ms"); err == nil { return ms }
    }
    return 45 * time.Second
}

func isTimeout(err error) bool {
    type timeout interface{ Timeout() bool }
    var te timeout
    if errors.As(err, &te) { return te.Timeout() }
    return false
}

func backoff(i int) time.Duration {
    return time.Duration(500*(1<<i)) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
    case <-t.C:
    }
}
