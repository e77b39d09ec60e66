package auth

import "time"

// Outcome classifies how an attempt terminated.
type Outcome string

const (
	// OutcomeSuccess: the driver matched an authorized identity.
	OutcomeSuccess Outcome = "success"
	// OutcomeUnauthorized: biometric failure (no face, no candidates, or
	// confidence below tolerance). Audited and alerted.
	OutcomeUnauthorized Outcome = "unauthorized"
	// OutcomeRejected: the attempt never reached a match decision
	// (lockout, missing input, unknown vehicle). Not audited.
	OutcomeRejected Outcome = "rejected"
)

// RejectReason tells callers why an attempt was turned away before the
// match decision, so transports can map it without parsing messages.
type RejectReason string

const (
	RejectLocked   RejectReason = "locked"
	RejectNotFound RejectReason = "vehicle_not_found"
	RejectNoImage  RejectReason = "no_image"
	RejectInternal RejectReason = "internal"
)

// Result is what every coordinator operation returns. Callers always get
// a structured result, never an exception to interpret.
type Result struct {
	Success       bool         `json:"success"`
	Outcome       Outcome      `json:"outcome"`
	Reason        RejectReason `json:"reason,omitempty"`
	Message       string       `json:"message"`
	UserID        *int64       `json:"user_id,omitempty"`
	UserName      string       `json:"user_name,omitempty"`
	Confidence    float64      `json:"confidence"`
	EngineEnabled bool         `json:"engine_enabled"`
	AlertCreated  bool         `json:"alert_created,omitempty"`
	LockedUntil   *time.Time   `json:"locked_until,omitempty"`
}

// rejected builds a Result for an attempt that never reached a decision.
func rejected(reason RejectReason, message string) Result {
	return Result{Outcome: OutcomeRejected, Reason: reason, Message: message}
}
