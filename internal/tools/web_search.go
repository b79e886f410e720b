package tools

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "strings"
    "time"
)

// WebSearchTool fetches a search results page for a query and returns its
// readable text plus the first few result links. BaseURL receives the query
// as the q parameter.
type WebSearchTool struct {
    BaseURL  string
    HTTP     *http.Client
    MaxLinks int
    MaxChars int
}

type SearchResult struct {
    Query string `json:"query"`
    Title string `json:"title,omitempty"`
    Text  string `json:"text"`
    Links []Link `json:"links,omitempty"`
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
    q, _ := inputs["query"].(string)
    q = strings.TrimSpace(q)
    if q == "" { return nil, "", errors.New("missing query") }
    if t.BaseURL == "" { return nil, "", errors.New("search endpoint not configured") }
    u, err := url.Parse(t.BaseURL)
    if err != nil { return nil, "", fmt.Errorf("invalid search url: %w", err) }
    params := u.Query()
    params.Set("q", q)
    u.RawQuery = params.Encode()

    client := t.HTTP
    if client == nil { client = &http.Client{Timeout: 10 * time.Second} }
    body, status, _, err := fetch(ctx, client, u.String())
    if err != nil { return nil, "", err }
    if status < 200 || status >= 300 {
        return nil, fmt.Sprintf("status=%d", status), fmt.Errorf("search: status %d", status)
    }
    p, err := parsePage(body, u, limit(t.MaxLinks, 5))
    if err != nil { return nil, "", err }
    return &SearchResult{Query: q, Title: p.Title, Text: truncate(p.Text, limit(t.MaxChars, 4000)), Links: p.Links},
        fmt.Sprintf("status=%d links=%d", status, len(p.Links)), nil
}
