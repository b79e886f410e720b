package models

import (
    "bytes"
    "encoding/json"
    "fmt"
    "regexp"
    "strconv"
    "strings"
    "time"
)

type Status string

const (
    StatusPending  Status = "PENDING"
    StatusRunning  Status = "RUNNING"
    StatusSuccess  Status = "SUCCESS"
    StatusFailed   Status = "FAILED"
    StatusSkipped  Status = "SKIPPED"
)

// FlexID is an opaque identifier that the voice platform may encode either as
// a JSON string or as a JSON number. It remembers which, so an id is written
// back exactly as it was received.
type FlexID struct {
    value   string
    numeric bool
}

// ID returns a string-form identifier.
func ID(s string) FlexID { return FlexID{value: s} }

// NumericID returns an identifier written as a JSON number. Text that is not a
// valid JSON number falls back to the string form.
func NumericID(s string) FlexID {
    if !numberRe.MatchString(s) { return FlexID{value: s} }
    return FlexID{value: s, numeric: true}
}

var (
    numberRe  = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)
    integerRe = regexp.MustCompile(`^-?(0|[1-9]\d*)$`)
)

// UnmarshalJSON never fails on well-formed JSON: anything other than a string
// or a number leaves the id empty.
func (id *FlexID) UnmarshalJSON(b []byte) error {
    *id = FlexID{}
    b = bytes.TrimSpace(b)
    if len(b) == 0 { return nil }
    switch {
    case b[0] == '"':
        var s string
        if err := json.Unmarshal(b, &s); err != nil { return err }
        *id = ID(s)
    case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
        var n json.Number
        if err := json.Unmarshal(b, &n); err != nil { return err }
        *id = NumericID(n.String())
    }
    return nil
}

func (id FlexID) MarshalJSON() ([]byte, error) {
    if id.numeric { return []byte(id.value), nil }
    return json.Marshal(id.value)
}

func (id FlexID) String() string { return id.value }

func (id FlexID) IsZero() bool { return id.value == "" }

func (id FlexID) IsNumeric() bool { return id.numeric }

// AgentID identifies an execution agent. Integer ids are sent to the platform
// as JSON numbers whatever form they arrived in.
type AgentID string

func (id *AgentID) UnmarshalJSON(b []byte) error {
    var f FlexID
    if err := f.UnmarshalJSON(b); err != nil { return err }
    *id = AgentID(f.value)
    return nil
}

func (id AgentID) MarshalJSON() ([]byte, error) {
    if id.IsNumeric() { return []byte(id), nil }
    return json.Marshal(string(id))
}

func (id AgentID) String() string { return string(id) }

// IsNumeric reports whether id is a canonical integer that fits in an int64.
func (id AgentID) IsNumeric() bool {
    if !integerRe.MatchString(string(id)) { return false }
    _, err := strconv.ParseInt(string(id), 10, 64)
    return err == nil
}

type Agent struct {
    ID         AgentID `json:"id"`
    Name       string  `json:"name"`
    WebhookURL string  `json:"webhook_url,omitempty"`
}

// Step is one advisory unit of a planned instruction.
type Step struct {
    ID          string `json:"id"`
    Action      string `json:"action,omitempty"`
    Details     string `json:"details,omitempty"`
    Description string `json:"description"`
    Tool        string `json:"tool,omitempty"`
    Status      Status `json:"status,omitempty"`
    Output      string `json:"output,omitempty"`
    Error       string `json:"error,omitempty"`
}

type CallTask struct {
    ID       FlexID         `json:"id"`
    AgentID  AgentID        `json:"agent_id"`
    ToNumber string         `json:"to_number"`
    Status   string         `json:"status"`
    Context  map[string]any `json:"context,omitempty"`
}

type DispatchResult struct {
    AgentID     AgentID `json:"agent_id"`
    CallID      FlexID  `json:"call_id"`
    Status      string  `json:"status"`
    Instruction string  `json:"instruction"`
    Note        string  `json:"note,omitempty"`
    Steps       []*Step `json:"steps,omitempty"`
}

// Keys of the variables extracted by the voice agent during a call.
const (
    VarAppointmentDate     = "appointment_date"
    VarBusinessName        = "business_name"
    VarBusinessPhone       = "business_phone"
    VarBusinessAddress     = "business_address"
    VarAppointmentType     = "appointment_type"
    VarSpecialInstructions = "special_instructions"
)

// ExtractedVariables is the untyped mapping the platform attaches to a
// callback. Every key is optional.
type ExtractedVariables map[string]any

// String returns the trimmed string form of key, or "" when absent.
func (v ExtractedVariables) String(key string) string {
    if v == nil { return "" }
    raw, ok := v[key]
    if !ok || raw == nil { return "" }
    switch t := raw.(type) {
    case string:
        return strings.TrimSpace(t)
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64)
    case json.Number:
        return t.String()
    default:
        return strings.TrimSpace(fmt.Sprint(t))
    }
}

type WebhookPayload struct {
    CallID             FlexID             `json:"call_id"`
    AgentID            AgentID            `json:"agent_id"`
    ExtractedVariables ExtractedVariables `json:"extracted_variables,omitempty"`
    Summary            string             `json:"summary,omitempty"`
    Transcript         string             `json:"transcript,omitempty"`
}

// UnmarshalJSON accepts any well-formed JSON. Fields of an unexpected type
// are read as empty rather than rejected, so every callback reaches the
// correlator. Only malformed JSON is an error.
func (p *WebhookPayload) UnmarshalJSON(b []byte) error {
    *p = WebhookPayload{}
    if !json.Valid(b) {
        var v any
        return json.Unmarshal(b, &v)
    }
    b = bytes.TrimSpace(b)
    if len(b) == 0 || b[0] != '{' { return nil }
    var raw struct {
        CallID             FlexID          `json:"call_id"`
        AgentID            AgentID         `json:"agent_id"`
        ExtractedVariables json.RawMessage `json:"extracted_variables"`
        Summary            json.RawMessage `json:"summary"`
        Transcript         json.RawMessage `json:"transcript"`
    }
    if err := json.Unmarshal(b, &raw); err != nil { return err }
    p.CallID = raw.CallID
    p.AgentID = raw.AgentID
    p.ExtractedVariables = decodeVariables(raw.ExtractedVariables)
    p.Summary = rawText(raw.Summary)
    p.Transcript = rawText(raw.Transcript)
    return nil
}

// decodeVariables reads an object, or a string holding an object; anything
// else is empty.
func decodeVariables(raw json.RawMessage) ExtractedVariables {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 { return nil }
    if raw[0] == '"' {
        var s string
        if err := json.Unmarshal(raw, &s); err != nil { return nil }
        raw = bytes.TrimSpace([]byte(s))
    }
    if len(raw) == 0 || raw[0] != '{' { return nil }
    var vars ExtractedVariables
    if err := json.Unmarshal(raw, &vars); err != nil { return nil }
    return vars
}

// rawText returns a JSON string's value, or the compact text of any other
// non-null value.
func rawText(raw json.RawMessage) string {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 || bytes.Equal(raw, []byte("null")) { return "" }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil { return s }
    var buf bytes.Buffer
    if err := json.Compact(&buf, raw); err != nil { return "" }
    return buf.String()
}

type CalendarEvent struct {
    Summary     string    `json:"summary"`
    Description string    `json:"description"`
    Start       time.Time `json:"start"`
    End         time.Time `json:"end"`
}

type Outcome string

const (
    OutcomeBooked         Outcome = "booked"
    OutcomeReceivedFailed Outcome = "received-but-failed"
    OutcomeReceivedNoOp   Outcome = "received-no-op"
)

// CorrelationResult is the explicit outcome of one callback delivery.
type CorrelationResult struct {
    Outcome              Outcome `json:"-"`
    Message              string  `json:"message"`
    CalendarEventCreated bool    `json:"calendar_event_created"`
    EventID              string  `json:"event_id,omitempty"`
    Reason               string  `json:"reason,omitempty"`
    Error                string  `json:"error,omitempty"`
}
