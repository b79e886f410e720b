package tools

import (
    "context"
    "sort"
)

// Tool is a named step handler. Output is tool specific; logs is a short
// diagnostic line.
type Tool interface {
    Name() string
    Execute(ctx context.Context, inputs map[string]any) (output any, logs string, err error)
}

type Registry struct {
    tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
    r := &Registry{tools: map[string]Tool{}}
    for _, t := range tools { r.Register(t) }
    return r
}

func (r *Registry) Register(t Tool) {
    r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
    t, ok := r.tools[name]
    return t, ok
}

func (r *Registry) Names() []string {
    out := make([]string, 0, len(r.tools))
    for n := range r.tools { out = append(out, n) }
    sort.Strings(out)
    return out
}
