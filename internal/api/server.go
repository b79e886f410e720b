package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "strings"

    "github.com/example/concierge-orchestrator/internal/agents"
    "github.com/example/concierge-orchestrator/internal/errs"
    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/orchestrator"
)

const (
    msgWorkflowDispatched = "Workflow dispatched to AI agent"
    msgWorkflowFailed     = "Failed to process workflow."
    msgWebhookFailed      = "Failed to process webhook"
    msgPlanFailed         = "Failed to plan steps."
    msgRunning            = "Concierge orchestrator is running"
)

// Server exposes the workflow and webhook endpoints. The two share no state:
// a callback is handled on its payload alone.
type Server struct {
    Coordinator orchestrator.Coordinator
    Correlator  orchestrator.CallbackHandler
    Planner     agents.Planner     // serves /plan
    Hub         *orchestrator.Hub  // optional; serves /workflow/events/
    Ledger      ledger.Ledger      // optional; serves /calls/
    Log         *slog.Logger
}

// Handler returns the routes wrapped in the request middleware chain.
func (s *Server) Handler() http.Handler {
    mux := http.NewServeMux()
    s.RegisterRoutes(mux)
    return cors(requestLogging(s.logger())(recoverer(mux)))
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/" { http.NotFound(w, r); return }
        w.Header().Set("Content-Type", "text/plain; charset=utf-8")
        w.Write([]byte(msgRunning))
    })

    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        w.Write([]byte("ok"))
    })

    mux.HandleFunc("/workflow", s.handleWorkflow)
    mux.HandleFunc("/omnidim-webhook", s.handleWebhook)
    mux.HandleFunc("/plan", s.handlePlan)
    mux.HandleFunc("/workflow/events/", s.handleEvents)
    mux.HandleFunc("/calls/", s.handleCall)
}

type instructionRequest struct {
    Instruction string `json:"instruction"`
}

type workflowResponse struct {
    Success bool   `json:"success"`
    Message string `json:"message"`
    *models.DispatchResult
}

type webhookResponse struct {
    Success bool `json:"success"`
    models.CorrelationResult
}

type errorResponse struct {
    Success bool   `json:"success"`
    Error   string `json:"error"`
    Details any    `json:"details,omitempty"`
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    log := loggerFrom(r.Context(), s.logger())
    var req instructionRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        respondError(w, http.StatusBadRequest, "Instruction is required.", nil)
        return
    }
    log.Info("workflow requested", "instruction", req.Instruction)

    res, err := s.Coordinator.Dispatch(r.Context(), req.Instruction)
    if err != nil {
        if errs.KindOf(err) == errs.KindValidation {
            respondError(w, http.StatusBadRequest, err.Error(), nil)
            return
        }
        log.Error("workflow failed", "kind", string(errs.KindOf(err)), "error", err)
        respondError(w, http.StatusInternalServerError, msgWorkflowFailed, errs.DetailsOf(err))
        return
    }
    respondJSON(w, http.StatusOK, workflowResponse{Success: true, Message: msgWorkflowDispatched, DispatchResult: res})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    log := loggerFrom(r.Context(), s.logger())
    var payload models.WebhookPayload
    if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
        log.Error("undecodable webhook body", "error", err)
        respondError(w, http.StatusInternalServerError, msgWebhookFailed, err.Error())
        return
    }
    // the calendar write outlives a dropped callback connection
    res := s.Correlator.HandleCallback(context.WithoutCancel(r.Context()), payload)
    respondJSON(w, http.StatusOK, webhookResponse{Success: true, CorrelationResult: res})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    var req instructionRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Instruction) == "" {
        respondError(w, http.StatusBadRequest, "Instruction is required.", nil)
        return
    }
    steps, err := s.Planner.PlanSteps(r.Context(), req.Instruction)
    if err != nil {
        loggerFrom(r.Context(), s.logger()).Error("planning failed", "error", err)
        respondError(w, http.StatusInternalServerError, msgPlanFailed, errs.DetailsOf(err))
        return
    }
    if steps == nil { steps = []*models.Step{} }
    respondJSON(w, http.StatusOK, map[string]any{"success": true, "steps": steps})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
    // path: /workflow/events/{call_id}
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    callID := strings.TrimPrefix(r.URL.Path, "/workflow/events/")
    if callID == "" || s.Hub == nil { http.NotFound(w, r); return }
    flusher, ok := w.(http.Flusher)
    if !ok {
        respondError(w, http.StatusInternalServerError, "streaming unsupported", nil)
        return
    }

    ch, unsubscribe := s.Hub.Subscribe(callID)
    defer unsubscribe()

    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    w.Header().Set("X-Accel-Buffering", "no")
    w.WriteHeader(http.StatusOK)
    fmt.Fprint(w, ": subscribed\n\n")
    flusher.Flush()

    for {
        select {
        case <-r.Context().Done():
            return
        case b, ok := <-ch:
            if !ok { return }
            if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil { return }
            flusher.Flush()
        }
    }
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
    // path: /calls/{call_id}
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    callID := strings.TrimPrefix(r.URL.Path, "/calls/")
    if callID == "" || s.Ledger == nil { http.NotFound(w, r); return }
    e, err := s.Ledger.Get(r.Context(), callID)
    if errors.Is(err, ledger.ErrNotFound) {
        respondError(w, http.StatusNotFound, "Call not found.", nil)
        return
    }
    if err != nil {
        respondError(w, http.StatusInternalServerError, "Failed to read call.", err.Error())
        return
    }
    respondJSON(w, http.StatusOK, map[string]any{"success": true, "call": e})
}

func (s *Server) logger() *slog.Logger {
    if s.Log != nil { return s.Log }
    return slog.Default()
}

// respondJSON encodes v before committing the status, so an unencodable
// value still yields a JSON error body.
func respondJSON(w http.ResponseWriter, status int, v any) {
    b, err := json.MarshalIndent(v, "", "  ")
    if err != nil {
        status = http.StatusInternalServerError
        b, _ = json.MarshalIndent(errorResponse{Success: false, Error: "Failed to encode response", Details: err.Error()}, "", "  ")
    }
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    w.Write(append(b, '\n'))
}

func respondError(w http.ResponseWriter, status int, msg string, details any) {
    respondJSON(w, status, errorResponse{Success: false, Error: msg, Details: details})
}
