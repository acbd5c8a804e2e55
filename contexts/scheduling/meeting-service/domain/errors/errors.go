package errors

import "errors"

var (
	// ErrMeetingNotFound covers true absence and cross-tenant access alike, so
	// out-of-tenant callers cannot learn that a meeting exists.
	ErrMeetingNotFound = errors.New("meeting not found")

	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid meeting state transition")
	ErrNotJoinable         = errors.New("meeting state does not allow joining")
	ErrJoinWindowClosed    = errors.New("join window is not open")
	ErrSlotNotProposed     = errors.New("selected slot is not among the proposed slots")
	ErrInvalidMeetingInput = errors.New("invalid meeting input")

	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)
