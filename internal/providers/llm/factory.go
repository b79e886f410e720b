package llm

import (
    "context"
    "log/slog"
    "os"
    "strings"
)

// NewFromEnv returns a Client based on environment variables.
// Supported providers:
// - LLM_PROVIDER=openai|anthropic|gemini
// - For OpenAI:   OPENAI_API_KEY, optional LLM_MODEL, OPENAI_API_BASE
// - For Anthropic: ANTHROPIC_API_KEY, optional LLM_MODEL
// - For Gemini:    GOOGLE_API_KEY, optional LLM_MODEL
// If nothing is configured, returns a MockClient.
func NewFromEnv(ctx context.Context, log *slog.Logger) Client {
    prov := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
    switch prov {
    case "openai":
        if c := openAIFromEnv(); c != nil { return c }
    case "anthropic":
        if c := anthropicFromEnv(); c != nil { return c }
    case "gemini":
        if c := geminiFromEnv(ctx, log); c != nil { return c }
    }

    // Auto-detect by API key presence if provider not specified
    if c := openAIFromEnv(); c != nil { return c }
    if c := anthropicFromEnv(); c != nil { return c }
    if c := geminiFromEnv(ctx, log); c != nil { return c }

    log.Info("no LLM provider configured, using mock planner completions")
    return &MockClient{}
}

func openAIFromEnv() Client {
    key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
    if key == "" { return nil }
    return &OpenAIClient{APIKey: key, Model: getModelWithDefault("LLM_MODEL", "gpt-4o-mini"), BaseURL: strings.TrimRight(os.Getenv("OPENAI_API_BASE"), "/")}
}

func anthropicFromEnv() Client {
    key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
    if key == "" { return nil }
    return &AnthropicClient{APIKey: key, Model: getModelWithDefault("LLM_MODEL", "claude-3-5-sonnet-latest")}
}

func geminiFromEnv(ctx context.Context, log *slog.Logger) Client {
    key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
    if key == "" { return nil }
    c, err := NewGeminiClient(ctx, key, getModelWithDefault("LLM_MODEL", "gemini-1.5-flash"))
    if err != nil {
        log.Warn("gemini client init failed", "error", err)
        return nil
    }
    return c
}

func getModelWithDefault(envKey, def string) string {
    if v := strings.TrimSpace(os.Getenv(envKey)); v != "" { return v }
    return def
}
