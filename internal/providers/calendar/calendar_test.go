package calendar

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "google.golang.org/api/option"

    "github.com/example/concierge-orchestrator/internal/models"
)

func TestGoogleCreator_CreateEvent(t *testing.T) {
    var hits int32
    var got map[string]any
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        atomic.AddInt32(&hits, 1)
        assert.Equal(t, http.MethodPost, r.Method)
        assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
        require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"id": "evt-1"}`))
    }))
    defer srv.Close()

    g := NewGoogleCreatorWithOptions("primary", "",
        option.WithEndpoint(srv.URL+"/"),
        option.WithHTTPClient(srv.Client()),
        option.WithoutAuthentication())

    start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
    for i := 0; i < 2; i++ {
        id, err := g.CreateEvent(context.Background(), models.CalendarEvent{
            Summary: "Appointment with Dr. X", Description: "d", Start: start, End: start.Add(time.Hour),
        })
        require.NoError(t, err)
        assert.Equal(t, "evt-1", id)
    }
    assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
    assert.Equal(t, "Appointment with Dr. X", got["summary"])
    assert.Equal(t, map[string]any{"dateTime": "2024-01-15T10:00:00Z", "timeZone": "UTC"}, got["start"])
    assert.Equal(t, map[string]any{"dateTime": "2024-01-15T11:00:00Z", "timeZone": "UTC"}, got["end"])
}

func TestGoogleCreator_ProviderRejection(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(http.StatusForbidden)
        _, _ = w.Write([]byte(`{"error": {"code": 403, "message": "forbidden"}}`))
    }))
    defer srv.Close()

    g := NewGoogleCreatorWithOptions("primary", "UTC",
        option.WithEndpoint(srv.URL+"/"),
        option.WithHTTPClient(srv.Client()),
        option.WithoutAuthentication())
    _, err := g.CreateEvent(context.Background(), models.CalendarEvent{Start: time.Now(), End: time.Now()})
    require.Error(t, err)
    assert.Contains(t, err.Error(), "insert event")
}

func TestGoogleCreator_RequiresCalendarID(t *testing.T) {
    g := NewGoogleCreatorWithOptions("", "UTC", option.WithoutAuthentication())
    _, err := g.CreateEvent(context.Background(), models.CalendarEvent{})
    assert.Error(t, err)
}
