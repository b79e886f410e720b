package llm

import (
    "context"
)

// MockClient is used when no real provider is configured. It returns a canned
// concierge plan so the workflow stays demonstrable offline.
type MockClient struct{}

func (m *MockClient) Complete(ctx context.Context, system, prompt string) (string, error) {
    return "1. Search for a suitable business near the user\n" +
        "2. Call the business to check availability\n" +
        "3. Book the earliest available appointment\n" +
        "4. Add the appointment to the calendar", nil
}
