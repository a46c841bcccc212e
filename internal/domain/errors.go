package domain

import "errors"

// Fatal conditions: the model or the oracle is inconsistent and continuing
// would silently corrupt the reconstruction.
var (
	// ErrContradiction indicates the same door on the same room was observed
	// with two different labels, or a disambiguation probe returned a label
	// matching neither the original nor the edited value.
	ErrContradiction = errors.New("contradiction")

	// ErrProtocolViolation indicates a disambiguation probe produced a final
	// label that is consistent with no hypothesis about the two rooms.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrMalformedResponse indicates the oracle returned an observation
	// sequence whose length does not match the submitted plan.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrNoFreeLabel indicates no edit label distinct from the excluded set
	// exists. With a 4-value alphabet and at most 2 exclusions this is a
	// precondition violation.
	ErrNoFreeLabel = errors.New("no free edit label")
)

// Recoverable conditions: the affected room stays incomplete or ambiguous
// and is retried by later scheduler iterations once more evidence exists.
var (
	// ErrBacklinkUndetermined indicates no door of the child showed the
	// edited label, so the return door could not be identified yet.
	ErrBacklinkUndetermined = errors.New("backlink undetermined")

	// ErrInconclusive indicates a disambiguation probe could not be
	// constructed, typically because no route between the two candidates is
	// known yet.
	ErrInconclusive = errors.New("disambiguation inconclusive")
)

// ErrIncomplete indicates assembly was attempted before the candidate store
// reached the target number of canonical, fully-known rooms.
var ErrIncomplete = errors.New("reconstruction incomplete")
