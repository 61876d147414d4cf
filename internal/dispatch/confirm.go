package dispatch

import "context"

// CancelPrompt is the question put to the user before cancelling.
const CancelPrompt = "Are you sure you want to cancel the ambulance? This action cannot be undone."

// Confirmer is a blocking yes/no gate.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Answer is a Confirmer that always gives the same reply, used when the
// client has already asked the user.
type Answer bool

// Confirm returns the fixed answer.
func (a Answer) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

var (
	// Accept confirms every prompt.
	Accept Confirmer = Answer(true)
	// Decline rejects every prompt.
	Decline Confirmer = Answer(false)
)
