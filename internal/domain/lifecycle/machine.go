// Package lifecycle implements the guarded state machine shared by all
// transactional documents. Legal transitions live in a single table keyed
// by document type; services never hand-roll status checks.
package lifecycle

import (
	"time"

	"retailcore/internal/core/apperror"
)

// DocType discriminates the document variants sharing the machine.
type DocType string

const (
	DocTypeInvoice    DocType = "invoice"
	DocTypeReturn     DocType = "return"
	DocTypeCommission DocType = "commission"
	DocTypeEInvoice   DocType = "einvoice"
)

// Status is a document lifecycle state. The set of valid values is
// type-specific; the transition table is the single source of truth.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusVoided    Status = "VOIDED"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
	StatusPaid      Status = "PAID"
	StatusGenerated Status = "GENERATED"
	StatusSubmitted Status = "SUBMITTED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// Action is a caller-facing operation name from the transition request.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionGenerate Action = "generate"
	ActionSubmit   Action = "submit"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionPay      Action = "pay"
	ActionVoid     Action = "void"
	ActionFail     Action = "fail"
)

// transitions is the allowed-next table. A status absent from its type's
// map (or mapped to an empty set) is terminal; terminal documents accept
// no further transitions, including onto the same state.
var transitions = map[DocType]map[Status][]Status{
	DocTypeInvoice: {
		StatusCreated: {StatusVoided},
	},
	DocTypeReturn: {
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusCompleted},
	},
	DocTypeCommission: {
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusPaid},
	},
	DocTypeEInvoice: {
		StatusPending:   {StatusGenerated, StatusFailed},
		StatusGenerated: {StatusSubmitted, StatusCancelled},
		// Submission is cancellable, unlike payment.
		StatusSubmitted: {StatusCancelled},
	},
}

// actionTargets maps a request action to its target status per type.
var actionTargets = map[DocType]map[Action]Status{
	DocTypeInvoice: {
		ActionVoid:   StatusVoided,
		ActionCancel: StatusVoided,
	},
	DocTypeReturn: {
		ActionApprove:  StatusApproved,
		ActionReject:   StatusRejected,
		ActionComplete: StatusCompleted,
	},
	DocTypeCommission: {
		ActionApprove:  StatusApproved,
		ActionReject:   StatusRejected,
		ActionPay:      StatusPaid,
		ActionComplete: StatusPaid,
	},
	DocTypeEInvoice: {
		ActionGenerate: StatusGenerated,
		ActionSubmit:   StatusSubmitted,
		ActionCancel:   StatusCancelled,
		ActionFail:     StatusFailed,
	},
}

// InitialStatus returns the status a freshly committed document carries.
func InitialStatus(dt DocType) Status {
	if dt == DocTypeInvoice {
		return StatusCreated
	}
	return StatusPending
}

// AllowedNext returns the legal target statuses for the current state.
func AllowedNext(dt DocType, current Status) []Status {
	next := transitions[dt][current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// AllowedActions returns the request actions legal in the current state,
// in transition-table order. Returned with every rejected transition so
// callers can self-correct.
func AllowedActions(dt DocType, current Status) []Action {
	var actions []Action
	for _, target := range transitions[dt][current] {
		for action, t := range actionTargets[dt] {
			if t == target {
				actions = append(actions, action)
			}
		}
	}
	return actions
}

// CanTransition reports whether current→target is in the allowed-next set.
func CanTransition(dt DocType, current, target Status) bool {
	for _, next := range transitions[dt][current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func IsTerminal(dt DocType, s Status) bool {
	return len(transitions[dt][s]) == 0
}

// ResolveAction translates a request action into its target status.
func ResolveAction(dt DocType, action Action) (Status, error) {
	target, ok := actionTargets[dt][action]
	if !ok {
		return "", apperror.NewValidation("unknown action for document type").
			WithDetail("document_type", string(dt)).
			WithDetail("action", string(action))
	}
	return target, nil
}

// Meta carries the audit fields recorded on every transition.
type Meta struct {
	Actor  string
	Reason string
	At     time.Time
}

// Record is one entry in a document's transition audit trail.
type Record struct {
	From   Status    `db:"from_status" json:"from"`
	To     Status    `db:"to_status" json:"to"`
	Actor  string    `db:"actor" json:"actor"`
	Reason string    `db:"reason" json:"reason,omitempty"`
	At     time.Time `db:"occurred_at" json:"at"`
}

// Subject is implemented by every document the machine governs.
type Subject interface {
	DocumentType() DocType
	CurrentStatus() Status

	// ApplyTransition mutates the document's status and appends the
	// audit record. Called only after the machine validates the move.
	ApplyTransition(rec Record)
}

// Transition advances doc to target if the move is legal, recording actor
// and timestamp. Illegal transitions are rejected without mutating
// anything; the error carries the allowed next actions.
func Transition(doc Subject, target Status, meta Meta) error {
	dt := doc.DocumentType()
	current := doc.CurrentStatus()

	if !CanTransition(dt, current, target) {
		allowed := make([]string, 0, len(AllowedActions(dt, current)))
		for _, a := range AllowedActions(dt, current) {
			allowed = append(allowed, string(a))
		}
		return apperror.NewIllegalTransition(string(dt), string(current), string(target), allowed)
	}

	// Cancelling a registered e-invoice requires a reason code.
	if dt == DocTypeEInvoice && target == StatusCancelled && meta.Reason == "" {
		return apperror.NewValidation("cancellation reason code is required").
			WithDetail("field", "reason")
	}

	at := meta.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	actor := meta.Actor
	if actor == "" {
		actor = "system"
	}

	doc.ApplyTransition(Record{
		From:   current,
		To:     target,
		Actor:  actor,
		Reason: meta.Reason,
		At:     at,
	})

	return nil
}
