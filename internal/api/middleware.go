package api

import (
    "context"
    "log/slog"
    "net/http"
    "runtime/debug"
    "time"

    "github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// cors allows the browser UI on another origin during local development.
func cors(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// requestLogging tags each request with an id, exposes a logger carrying it
// through the context and logs one line per request.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            id := r.Header.Get(requestIDHeader)
            if id == "" { id = uuid.NewString() }
            w.Header().Set(requestIDHeader, id)
            reqLog := logger.With("request_id", id)
            sw := &statusWriter{ResponseWriter: w}

            next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqLog)))

            reqLog.LogAttrs(r.Context(), slog.LevelInfo, "http request",
                slog.String("method", r.Method),
                slog.String("path", r.URL.Path),
                slog.Int("status", sw.statusCode()),
                slog.Int64("duration_ms", time.Since(start).Milliseconds()),
            )
        })
    }
}

// recoverer turns a handler panic into a generic 500.
func recoverer(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if v := recover(); v != nil {
                if v == http.ErrAbortHandler { panic(v) }
                loggerFrom(r.Context(), slog.Default()).Error("handler panic", "panic", v, "stack", string(debug.Stack()))
                respondError(w, http.StatusInternalServerError, "Internal server error", nil)
            }
        }()
        next.ServeHTTP(w, r)
    })
}

func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
    if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok { return l }
    return fallback
}

type statusWriter struct {
    http.ResponseWriter
    status int
}

func (w *statusWriter) WriteHeader(status int) {
    if w.status == 0 { w.status = status }
    w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
    if w.status == 0 { w.status = http.StatusOK }
    return w.ResponseWriter.Write(p)
}

func (w *statusWriter) statusCode() int {
    if w.status == 0 { return http.StatusOK }
    return w.status
}

func (w *statusWriter) Flush() {
    if f, ok := w.ResponseWriter.(http.Flusher); ok { f.Flush() }
}
