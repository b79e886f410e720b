// Package calendar creates booking events on Google Calendar.
package calendar

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    gcal "google.golang.org/api/calendar/v3"
    "google.golang.org/api/option"

    "github.com/example/concierge-orchestrator/internal/models"
)

// EventCreator is the createEvent capability used by the webhook correlator.
type EventCreator interface {
    CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error)
}

// GoogleCreator inserts events into one calendar. The underlying service is
// built on first use and reused afterwards; a failed build is retried on the
// next call.
type GoogleCreator struct {
    CalendarID string
    TimeZone   string

    opts []option.ClientOption

    mu  sync.Mutex
    svc *gcal.Service
}

// NewGoogleCreator authenticates with a service-account credentials file.
func NewGoogleCreator(calendarID, credentialsFile, timeZone string) *GoogleCreator {
    return NewGoogleCreatorWithOptions(calendarID, timeZone,
        option.WithCredentialsFile(credentialsFile),
        option.WithScopes(gcal.CalendarScope))
}

func NewGoogleCreatorWithOptions(calendarID, timeZone string, opts ...option.ClientOption) *GoogleCreator {
    if timeZone == "" { timeZone = "UTC" }
    return &GoogleCreator{CalendarID: calendarID, TimeZone: timeZone, opts: opts}
}

func (g *GoogleCreator) service(ctx context.Context) (*gcal.Service, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    if g.svc != nil { return g.svc, nil }
    svc, err := gcal.NewService(context.WithoutCancel(ctx), g.opts...)
    if err != nil { return nil, fmt.Errorf("calendar client: %w", err) }
    g.svc = svc
    return svc, nil
}

func (g *GoogleCreator) CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error) {
    if g.CalendarID == "" { return "", errors.New("calendar id not set") }
    svc, err := g.service(ctx)
    if err != nil { return "", err }
    created, err := svc.Events.Insert(g.CalendarID, &gcal.Event{
        Summary:     ev.Summary,
        Description: ev.Description,
        Start:       &gcal.EventDateTime{DateTime: ev.Start.UTC().Format(time.RFC3339), TimeZone: g.TimeZone},
        End:         &gcal.EventDateTime{DateTime: ev.End.UTC().Format(time.RFC3339), TimeZone: g.TimeZone},
    }).Context(ctx).Do()
    if err != nil { return "", fmt.Errorf("insert event: %w", err) }
    return created.Id, nil
}
