// Package telemetry records request/response latency for the negotiation
// exchanges. It is optional: the core calls the Recorder interface and works
// identically against the no-op implementation.
package telemetry

// Recorder observes one correlation-id exchange from the sender's side.
// Start is called when the opening message goes out, End when the reply
// arrives or the wait is abandoned.
type Recorder interface {
	Start(correlationID, performative, receiver string)
	End(correlationID, outcome string, success bool)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Start(string, string, string) {}
func (Nop) End(string, string, bool)     {}
func (Nop) Close() error                 { return nil }

// Multi fans out to several recorders.
type Multi []Recorder

func (m Multi) Start(correlationID, performative, receiver string) {
	for _, r := range m {
		r.Start(correlationID, performative, receiver)
	}
}

func (m Multi) End(correlationID, outcome string, success bool) {
	for _, r := range m {
		r.End(correlationID, outcome, success)
	}
}

func (m Multi) Close() error {
	var firstErr error
	for _, r := range m {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
