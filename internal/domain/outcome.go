package domain

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "SUCCESS"
	OutcomeFailure OutcomeKind = "FAILURE"
)

// Outcome is what an auth flow hands back to the transport: where to send the
// client and which message to flash. Cause is for operators only.
type Outcome struct {
	Kind           OutcomeKind
	RedirectTarget string
	Message        string
	Cause          error
}

func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
