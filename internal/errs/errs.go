// Package errs defines the workflow error taxonomy shared by the coordinators
// and the HTTP layer.
package errs

import (
    "errors"
    "fmt"
)

type Kind string

const (
    KindValidation   Kind = "validation"
    KindProvisioning Kind = "provisioning"
    KindDispatch     Kind = "dispatch"
    KindPlanning     Kind = "planning"
)

// Error carries a kind, a human message and, when an upstream service
// answered, its payload in Details.
type Error struct {
    Kind    Kind
    Message string
    Details any
    Err     error
}

func (e *Error) Error() string {
    if e.Err == nil { return e.Message }
    return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// payloader is implemented by upstream errors that hold a decoded response body.
type payloader interface {
    Payload() any
}

// Wrap builds an Error of kind around err. Details is the upstream payload
// when err carries one, otherwise err's message.
func Wrap(kind Kind, msg string, err error) *Error {
    e := &Error{Kind: kind, Message: msg, Err: err}
    var p payloader
    if errors.As(err, &p) {
        e.Details = p.Payload()
    } else if err != nil {
        e.Details = err.Error()
    }
    return e
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
    var e *Error
    if errors.As(err, &e) { return e.Kind }
    return ""
}

// DetailsOf returns the upstream details carried by err, falling back to its message.
func DetailsOf(err error) any {
    var e *Error
    if errors.As(err, &e) && e.Details != nil { return e.Details }
    if err == nil { return nil }
    return err.Error()
}
