package orchestrator

import (
    "regexp"
)

var phoneRe = regexp.MustCompile(`\+?\d{10,15}`)

// PhonePolicy picks the number a call is placed to. By default the first
// phone-like run in the instruction wins, else Default. With UseFixed every
// call goes to Fixed.
type PhonePolicy struct {
    UseFixed bool
    Default  string
    Fixed    string
}

func (p PhonePolicy) Resolve(instruction string) string {
    if p.UseFixed && p.Fixed != "" {
        return p.Fixed
    }
    if m := phoneRe.FindString(instruction); m != "" {
        return m
    }
    return p.Default
}
