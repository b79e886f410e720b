package orchestrator

import (
    "context"
    "fmt"
    "log/slog"
    "strings"
    "time"

    "github.com/araddon/dateparse"

    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/models"
    "github.com/example/concierge-orchestrator/internal/providers/calendar"
)

const (
    msgWebhookOK     = "Webhook processed successfully"
    msgWebhookFailed = "Webhook processed but calendar event creation failed"

    ReasonNoDetails     = "no appointment details"
    ReasonNoCalendar    = "calendar not configured"
    appointmentDuration = time.Hour
)

// CallbackHandler reconciles one callback delivery.
type CallbackHandler interface {
    HandleCallback(ctx context.Context, payload models.WebhookPayload) models.CorrelationResult
}

// Correlator turns a post-call callback into at most one calendar event. The
// payload alone decides the outcome; nothing about the originating dispatch
// is looked up, so duplicate deliveries produce duplicate events.
type Correlator struct {
    Calendar calendar.EventCreator // nil when calendar is not configured
    Location *time.Location        // zone for dates without an offset; UTC when nil
    Ledger   ledger.Ledger         // optional
    Hub      *Hub                  // optional
    Log      *slog.Logger
}

func (c *Correlator) HandleCallback(ctx context.Context, p models.WebhookPayload) models.CorrelationResult {
    log := c.logger().With("call_id", p.CallID.String())
    vars := p.ExtractedVariables
    date := vars.String(models.VarAppointmentDate)
    business := vars.String(models.VarBusinessName)
    log.Info("webhook received",
        "agent_id", p.AgentID.String(),
        models.VarAppointmentDate, date,
        models.VarBusinessName, business,
        models.VarBusinessPhone, vars.String(models.VarBusinessPhone),
        models.VarBusinessAddress, vars.String(models.VarBusinessAddress),
        models.VarAppointmentType, vars.String(models.VarAppointmentType),
        models.VarSpecialInstructions, vars.String(models.VarSpecialInstructions),
    )

    res := c.correlate(ctx, log, vars, date, business)
    c.record(ctx, log, p.CallID.String(), res)
    return res
}

func (c *Correlator) correlate(ctx context.Context, log *slog.Logger, vars models.ExtractedVariables, date, business string) models.CorrelationResult {
    if date == "" || business == "" {
        log.Info("no appointment details in callback")
        return noOp(ReasonNoDetails)
    }
    if c.Calendar == nil {
        log.Warn("appointment received but calendar is not configured")
        return noOp(ReasonNoCalendar)
    }
    ev, err := BuildEvent(vars, c.Location)
    if err != nil {
        log.Error("appointment date not understood", "error", err)
        return failed(err)
    }
    id, err := c.Calendar.CreateEvent(ctx, ev)
    if err != nil {
        log.Error("calendar event creation failed", "error", err)
        return failed(err)
    }
    log.Info("calendar event created", "event_id", id)
    return models.CorrelationResult{
        Outcome:              models.OutcomeBooked,
        Message:              msgWebhookOK,
        CalendarEventCreated: true,
        EventID:              id,
    }
}

func (c *Correlator) record(ctx context.Context, log *slog.Logger, callID string, res models.CorrelationResult) {
    if c.Ledger != nil && callID != "" {
        if err := c.Ledger.RecordOutcome(context.WithoutCancel(ctx), callID, res); err != nil {
            log.Warn("ledger outcome record failed", "error", err)
        }
    }
    c.Hub.Publish(Event{Event: EventBooking, CallID: callID, Payload: map[string]any{
        "outcome":                string(res.Outcome),
        "calendar_event_created": res.CalendarEventCreated,
        "event_id":               res.EventID,
        "reason":                 res.Reason,
        "error":                  res.Error,
    }})
}

func (c *Correlator) logger() *slog.Logger {
    if c.Log != nil { return c.Log }
    return slog.Default()
}

func noOp(reason string) models.CorrelationResult {
    return models.CorrelationResult{Outcome: models.OutcomeReceivedNoOp, Message: msgWebhookOK, Reason: reason}
}

func failed(err error) models.CorrelationResult {
    return models.CorrelationResult{Outcome: models.OutcomeReceivedFailed, Message: msgWebhookFailed, Error: err.Error()}
}

// BuildEvent renders the one-hour calendar event for an extracted
// appointment. Dates without an explicit offset are read in loc (UTC when nil).
func BuildEvent(vars models.ExtractedVariables, loc *time.Location) (models.CalendarEvent, error) {
    if loc == nil { loc = time.UTC }
    raw := vars.String(models.VarAppointmentDate)
    start, err := dateparse.ParseIn(raw, loc)
    if err != nil {
        return models.CalendarEvent{}, fmt.Errorf("parse appointment date %q: %w", raw, err)
    }
    business := vars.String(models.VarBusinessName)
    return models.CalendarEvent{
        Summary:     "Appointment with " + business,
        Description: describeAppointment(vars),
        Start:       start,
        End:         start.Add(appointmentDuration),
    }, nil
}

func describeAppointment(vars models.ExtractedVariables) string {
    or := func(key, fallback string) string {
        if v := vars.String(key); v != "" { return v }
        return fallback
    }
    var b strings.Builder
    fmt.Fprintf(&b, "Appointment Type: %s\n", or(models.VarAppointmentType, "General"))
    fmt.Fprintf(&b, "Business: %s\n", vars.String(models.VarBusinessName))
    fmt.Fprintf(&b, "Phone: %s\n", or(models.VarBusinessPhone, "N/A"))
    fmt.Fprintf(&b, "Address: %s\n", or(models.VarBusinessAddress, "N/A"))
    fmt.Fprintf(&b, "Special Instructions: %s\n", or(models.VarSpecialInstructions, "None"))
    b.WriteString("\nBooked via AI Concierge Agent")
    return b.String()
}
