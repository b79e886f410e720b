package orchestrator

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/example/concierge-orchestrator/internal/ledger"
    "github.com/example/concierge-orchestrator/internal/logging"
    "github.com/example/concierge-orchestrator/internal/models"
)

func fullVars() models.ExtractedVariables {
    return models.ExtractedVariables{
        models.VarAppointmentDate:     "2024-01-15T10:00:00Z",
        models.VarBusinessName:        "Dr. Smith",
        models.VarBusinessPhone:       "555-1234",
        models.VarBusinessAddress:     "1 Main St",
        models.VarAppointmentType:     "Checkup",
        models.VarSpecialInstructions: "Bring ID",
    }
}

func TestCorrelator_Books(t *testing.T) {
    cal := &fakeCalendar{}
    c := &Correlator{Calendar: cal, Log: logging.Discard()}
    res := c.HandleCallback(context.Background(), models.WebhookPayload{CallID: models.ID("c1"), ExtractedVariables: fullVars()})

    assert.Equal(t, models.OutcomeBooked, res.Outcome)
    assert.True(t, res.CalendarEventCreated)
    assert.Equal(t, "evt-x", res.EventID)
    assert.Equal(t, "Webhook processed successfully", res.Message)

    evs := cal.created()
    require.Len(t, evs, 1)
    ev := evs[0]
    assert.Equal(t, "Appointment with Dr. Smith", ev.Summary)
    assert.WithinDuration(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ev.Start, 0)
    assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))
    assert.Equal(t, "Appointment Type: Checkup\nBusiness: Dr. Smith\nPhone: 555-1234\nAddress: 1 Main St\nSpecial Instructions: Bring ID\n\nBooked via AI Concierge Agent", ev.Description)
}

func TestCorrelator_DescriptionFallbacks(t *testing.T) {
    ev, err := BuildEvent(models.ExtractedVariables{
        models.VarAppointmentDate: "2024-03-01 15:30",
        models.VarBusinessName:    "Salon",
    }, nil)
    require.NoError(t, err)
    assert.Equal(t, "Appointment Type: General\nBusiness: Salon\nPhone: N/A\nAddress: N/A\nSpecial Instructions: None\n\nBooked via AI Concierge Agent", ev.Description)
    assert.WithinDuration(t, time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC), ev.Start, 0)
}

func TestCorrelator_NoOp(t *testing.T) {
    cases := []struct {
        name   string
        vars   models.ExtractedVariables
        cal    bool
        reason string
    }{
        {"no variables", nil, true, ReasonNoDetails},
        {"missing business", models.ExtractedVariables{models.VarAppointmentDate: "2024-01-15T10:00:00Z"}, true, ReasonNoDetails},
        {"missing date", models.ExtractedVariables{models.VarBusinessName: "Dr. Smith"}, true, ReasonNoDetails},
        {"blank date", models.ExtractedVariables{models.VarAppointmentDate: "  ", models.VarBusinessName: "Dr. Smith"}, true, ReasonNoDetails},
        {"calendar unconfigured", fullVars(), false, ReasonNoCalendar},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cal := &fakeCalendar{}
            c := &Correlator{Log: logging.Discard()}
            if tc.cal { c.Calendar = cal }
            res := c.HandleCallback(context.Background(), models.WebhookPayload{CallID: models.ID("c1"), ExtractedVariables: tc.vars})
            assert.Equal(t, models.OutcomeReceivedNoOp, res.Outcome)
            assert.False(t, res.CalendarEventCreated)
            assert.Equal(t, tc.reason, res.Reason)
            assert.Empty(t, cal.created())
        })
    }
}

func TestCorrelator_CalendarFailure(t *testing.T) {
    c := &Correlator{Calendar: &fakeCalendar{err: errors.New("quota exceeded")}, Log: logging.Discard()}
    res := c.HandleCallback(context.Background(), models.WebhookPayload{CallID: models.ID("c1"), ExtractedVariables: fullVars()})
    assert.Equal(t, models.OutcomeReceivedFailed, res.Outcome)
    assert.False(t, res.CalendarEventCreated)
    assert.Equal(t, "Webhook processed but calendar event creation failed", res.Message)
    assert.Equal(t, "quota exceeded", res.Error)
}

func TestCorrelator_UnparseableDate(t *testing.T) {
    cal := &fakeCalendar{}
    vars := fullVars()
    vars[models.VarAppointmentDate] = "next-ish tuesday maybe"
    c := &Correlator{Calendar: cal, Log: logging.Discard()}
    res := c.HandleCallback(context.Background(), models.WebhookPayload{CallID: models.ID("c1"), ExtractedVariables: vars})
    assert.Equal(t, models.OutcomeReceivedFailed, res.Outcome)
    assert.NotEmpty(t, res.Error)
    assert.Empty(t, cal.created())
}

func TestCorrelator_DuplicateDeliveriesBookTwice(t *testing.T) {
    cal := &fakeCalendar{}
    c := &Correlator{Calendar: cal, Log: logging.Discard()}
    p := models.WebhookPayload{CallID: models.ID("c1"), ExtractedVariables: fullVars()}
    c.HandleCallback(context.Background(), p)
    c.HandleCallback(context.Background(), p)
    assert.Len(t, cal.created(), 2)
}

func TestCorrelator_UnknownCallIDStillBooks(t *testing.T) {
    l := ledger.NewMemoryLedger()
    hub := NewHub()
    ch, unsub := hub.Subscribe("never-dispatched")
    defer unsub()
    c := &Correlator{Calendar: &fakeCalendar{}, Ledger: l, Hub: hub, Log: logging.Discard()}
    res := c.HandleCallback(context.Background(), models.WebhookPayload{CallID: models.ID("never-dispatched"), ExtractedVariables: fullVars()})
    assert.Equal(t, models.OutcomeBooked, res.Outcome)

    e, err := l.Get(context.Background(), "never-dispatched")
    require.NoError(t, err)
    assert.Equal(t, "booked", e.Outcome)

    var ev map[string]any
    require.NoError(t, json.Unmarshal(<-ch, &ev))
    assert.Equal(t, EventBooking, ev["event"])
    assert.Equal(t, "booked", ev["payload"].(map[string]any)["outcome"])
}

func TestCorrelator_NumericVariables(t *testing.T) {
    var p models.WebhookPayload
    require.NoError(t, json.Unmarshal([]byte(`{"call_id":12,"agent_id":3,"extracted_variables":{"appointment_date":"2024-01-15T10:00:00Z","business_name":"Dr. Smith","business_phone":5551234}}`), &p))
    cal := &fakeCalendar{}
    c := &Correlator{Calendar: cal, Log: logging.Discard()}
    res := c.HandleCallback(context.Background(), p)
    assert.Equal(t, models.OutcomeBooked, res.Outcome)
    assert.Contains(t, cal.created()[0].Description, "Phone: 5551234\n")
}
