package llm

import (
    "context"
    "errors"
    "strings"

    genai "github.com/google/generative-ai-go/genai"
    "google.golang.org/api/option"
)

// GeminiClient talks to Gemini through the official SDK.
type GeminiClient struct {
    client *genai.Client
    model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
    c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
    if err != nil { return nil, err }
    return &GeminiClient{client: c, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
    m := g.client.GenerativeModel(g.model)
    if system != "" {
        m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
    }
    resp, err := m.GenerateContent(ctx, genai.Text(prompt))
    if err != nil { return "", err }
    txt := firstText(resp)
    if txt == "" { return "", errors.New("no candidates") }
    return txt, nil
}

func (g *GeminiClient) Close() error { return g.client.Close() }

func firstText(r *genai.GenerateContentResponse) string {
    if r == nil { return "" }
    var b strings.Builder
    for _, c := range r.Candidates {
        if c.Content == nil { continue }
        for _, part := range c.Content.Parts {
            if t, ok := part.(genai.Text); ok { b.WriteString(string(t)) }
        }
        if b.Len() > 0 { break }
    }
    return b.String()
}
