// Package services implements the business logic of the submission
// reconciliation pipeline: matching, grouping, merging, thread locking,
// resolution, issue curation, and audit logging. This file centralizes
// service-level error values so they can be consistently returned by service
// methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionNotFound indicates that the requested submission does
	// not exist.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrOfficialNotFound indicates that the requested official does not
	// exist.
	ErrOfficialNotFound = errors.New("official not found")

	// ErrThreadNotFound indicates that no thread exists for the group key.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrIssueNotFound indicates that the requested issue does not exist.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrJobNotFound indicates that the requested ingest job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrThreadLocked is the base error for mutations on a thread whose
	// lock is held by someone else. Use errors.As with *ThreadLockedError
	// to recover the current holder.
	ErrThreadLocked = errors.New("thread locked")

	// ErrForbiddenRelease is returned when a non-holder, non-admin actor
	// attempts to release a thread lock.
	ErrForbiddenRelease = errors.New("only the lock holder or an admin may release")

	// ErrAlreadyResolved is returned when a resolution targets a submission
	// whose status is already terminal.
	ErrAlreadyResolved = errors.New("submission already resolved")

	// ErrInvalidAction is returned for a resolve action outside
	// approve/reject.
	ErrInvalidAction = errors.New("action must be approve or reject")
)

// ThreadLockedError reports a mutation rejected because another reviewer
// holds the thread lock. It matches ErrThreadLocked under errors.Is so
// callers can branch on kind while still surfacing the holder.
type ThreadLockedError struct {
	Holder string
}

func (e *ThreadLockedError) Error() string {
	return fmt.Sprintf("thread locked by %s", e.Holder)
}

// Is reports that a ThreadLockedError is an ErrThreadLocked.
func (e *ThreadLockedError) Is(target error) bool { return target == ErrThreadLocked }

// ValidationError carries the per-field problems of one rejected row or
// request. It is client-correctable and never aborts a batch.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0]
	}
	return fmt.Sprintf("%d validation errors", len(e.Messages))
}
