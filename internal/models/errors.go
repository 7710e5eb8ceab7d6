package models

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Handlers rely on these to pick the HTTP
// status and the client displays the join reasons verbatim.
var (
	// Validation: rejected synchronously, no side effect performed.
	ErrInvalidTeamCount = errors.New("team count outside competition bounds")
	ErrMissingStarTeam  = errors.New("selection must star exactly one fixture")
	ErrDuplicateJoin    = errors.New("user already joined this competition")

	// Conflict: rejected after compensating any partial reservation.
	ErrCapacityExceeded     = errors.New("competition is at participant capacity")
	ErrStarFixtureTaken     = errors.New("star fixture already taken in this competition")
	ErrCompetitionNotActive = errors.New("competition is not active")
	ErrFixtureResultFinal   = errors.New("fixture result already final")

	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrNotAllProofsVerified = errors.New("not all proofs are verified")
)

// NotFoundError indicates a competition, selection, wallet or user is absent
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// DuplicateKeyError surfaces a unique-index violation from the storage layer.
// The entry coordinator translates it into the specific conflict it guards.
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Key)
}

// ValidationError carries a field-level rejection with no side effects
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateKey reports whether err is a DuplicateKeyError anywhere in its chain
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}
