package models

import "errors"

// Business error kinds returned by the matching engine. These are outcomes of
// the state machine rules, not system faults; callers match them with
// errors.Is for user-facing messaging.
var (
	// ErrNotFound indicates the referenced request or invite does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInviteNotPending indicates an accept/decline targeted an invite that
	// already left the pending state (the race was lost or already resolved).
	ErrInviteNotPending = errors.New("invite is not pending")
	// ErrRequestAlreadyBound indicates an accept targeted a request whose
	// speaker is already chosen.
	ErrRequestAlreadyBound = errors.New("request is already bound")
	// ErrInvalidNegotiationState indicates a negotiation operation was invoked
	// out of sequence.
	ErrInvalidNegotiationState = errors.New("invalid negotiation state")
	// ErrEmptyCandidateSet indicates request creation resolved zero candidates.
	ErrEmptyCandidateSet = errors.New("no candidates for specialization")
	// ErrInvalidInput indicates a caller-supplied field failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable indicates a storage failure that survived a retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
