// Resolution workflow.
//
// Reviewer decisions move a submission out of pending/conflict exactly
// once: approve (merge engine runs, the directory is written) or reject (no
// directory write). Closing a thread marks every still-open sibling as
// superseded and drops the thread lock. Lock ownership is re-checked here on
// every mutation, not just at claim time.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// Resolve actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// DefaultRejectionReason is stamped when a reviewer rejects without giving
// a reason.
const DefaultRejectionReason = "not applicable"

// ResolveRequest carries one reviewer decision.
type ResolveRequest struct {
	Action      string          `json:"action"`
	Verify      bool            `json:"verify,omitempty"`
	Overrides   domain.Proposed `json:"overrides,omitempty"`
	CloseThread bool            `json:"closeThread,omitempty"`
	Resolution  string          `json:"resolution,omitempty"`
}

// ResolveOutcome is the result of one resolution.
type ResolveOutcome struct {
	Submission *domain.Submission `json:"submission"`
	Official   *domain.Official   `json:"official,omitempty"`
}

// BulkItem is the per-item accounting of a bulk resolve.
type BulkItem struct {
	SubmissionID string `json:"submissionId"`
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
}

// BulkOutcome aggregates a bulk resolve.
type BulkOutcome struct {
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// ResolveService applies reviewer decisions.
type ResolveService struct {
	DB     *gorm.DB
	Locks  *LockService
	Issues *IssueService
	Audit  *AuditService
}

// Resolve applies one decision to one submission on behalf of actor.
func (s *ResolveService) Resolve(ctx context.Context, submissionID string, actor domain.Identity, req ResolveRequest) (*ResolveOutcome, error) {
	if req.Action != ActionApprove && req.Action != ActionReject {
		return nil, ErrInvalidAction
	}

	sub, err := repo.GetSubmission(ctx, s.DB, submissionID)
	if err != nil {
		return nil, mapNotFound(err, ErrSubmissionNotFound)
	}
	if !sub.Open() {
		return nil, ErrAlreadyResolved
	}
	if err := s.Locks.EnsureMutable(ctx, sub.GroupKey, actor); err != nil {
		return nil, err
	}

	if req.Action == ActionReject {
		return s.reject(ctx, sub, actor, req)
	}
	return s.approve(ctx, sub, actor, req)
}

func (s *ResolveService) approve(ctx context.Context, sub *domain.Submission, actor domain.Identity, req ResolveRequest) (*ResolveOutcome, error) {
	// Issue names may still be raw strings on older submissions;
	// re-resolve to IDs before the merge.
	issueIDs, err := s.Issues.ResolveNames(ctx, sub.Proposed.Issues)
	if err != nil {
		return nil, err
	}
	sub.Proposed.Issues = domain.StringList(issueIDs)

	var current *domain.Official
	targetID := ""
	if sub.Kind == domain.KindEdit && sub.TargetOfficialID != nil {
		targetID = *sub.TargetOfficialID
		current, err = repo.GetOfficial(ctx, s.DB, targetID)
		if err != nil {
			return nil, mapNotFound(err, ErrOfficialNotFound)
		}
	}

	merged := BuildMergedOfficial(current, sub.Proposed, req.Overrides, req.Verify)
	official, err := PersistMerged(ctx, s.DB, targetID, merged)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := repo.UpdateSubmission(ctx, s.DB, sub.ID, map[string]any{
		"status":         domain.StatusApproved,
		"resolution":     "approved",
		"verifier_email": actor.Email,
		"verified_at":    now,
	}); err != nil {
		return nil, err
	}
	sub.Status = domain.StatusApproved
	sub.Resolution = "approved"
	sub.VerifierEmail = &actor.Email
	sub.VerifiedAt = &now

	summary := fmt.Sprintf("approved submission for %s", official.FullName)
	if req.Verify {
		summary += " (verified)"
	}
	superseded := int64(0)
	if req.CloseThread {
		superseded, err = repo.SupersedeSiblings(ctx, s.DB, sub.GroupKey, sub.ID)
		if err != nil {
			return nil, err
		}
		if err := repo.DeleteLock(ctx, s.DB, sub.GroupKey); err != nil {
			return nil, err
		}
		summary += " and closed thread"
	}

	resolutions.WithLabelValues(ActionApprove).Inc()
	s.Audit.Record(ctx, actor, sub.GroupKey, &sub.ID, domain.ActionApprove, summary, map[string]any{
		"officialId": official.ID,
		"verified":   req.Verify,
		"closed":     req.CloseThread,
		"superseded": superseded,
	})
	return &ResolveOutcome{Submission: sub, Official: official}, nil
}

func (s *ResolveService) reject(ctx context.Context, sub *domain.Submission, actor domain.Identity, req ResolveRequest) (*ResolveOutcome, error) {
	reason := req.Resolution
	if reason == "" {
		reason = DefaultRejectionReason
	}
	now := time.Now().UTC()
	if err := repo.UpdateSubmission(ctx, s.DB, sub.ID, map[string]any{
		"status":         domain.StatusRejected,
		"resolution":     reason,
		"verifier_email": actor.Email,
		"verified_at":    now,
	}); err != nil {
		return nil, err
	}
	sub.Status = domain.StatusRejected
	sub.Resolution = reason
	sub.VerifierEmail = &actor.Email
	sub.VerifiedAt = &now

	resolutions.WithLabelValues(ActionReject).Inc()
	s.Audit.Record(ctx, actor, sub.GroupKey, &sub.ID, domain.ActionReject,
		fmt.Sprintf("rejected submission: %s", reason), nil)
	return &ResolveOutcome{Submission: sub}, nil
}

// BulkResolve applies the same per-item logic across submission IDs. One
// item's failure never aborts the rest; callers get per-item ok/fail.
func (s *ResolveService) BulkResolve(ctx context.Context, ids []string, actor domain.Identity, req ResolveRequest) BulkOutcome {
	out := BulkOutcome{Items: make([]BulkItem, 0, len(ids))}
	for _, id := range ids {
		if _, err := s.Resolve(ctx, id, actor, req); err != nil {
			out.Failed++
			out.Items = append(out.Items, BulkItem{SubmissionID: id, Error: err.Error()})
			continue
		}
		out.Succeeded++
		out.Items = append(out.Items, BulkItem{SubmissionID: id, OK: true})
	}
	return out
}

// Vote adjusts a submission's vote tally. Like every other mutation it is
// rejected while another reviewer holds the thread lock.
func (s *ResolveService) Vote(ctx context.Context, submissionID string, actor domain.Identity, delta int) (*domain.Submission, error) {
	if delta != -1 && delta != 1 {
		return nil, &ValidationError{Messages: []string{"vote must be -1 or 1"}}
	}
	sub, err := repo.GetSubmission(ctx, s.DB, submissionID)
	if err != nil {
		return nil, mapNotFound(err, ErrSubmissionNotFound)
	}
	if err := s.Locks.EnsureMutable(ctx, sub.GroupKey, actor); err != nil {
		return nil, err
	}
	if err := repo.IncrementVotes(ctx, s.DB, sub.ID, delta); err != nil {
		return nil, err
	}
	sub.Votes += delta
	return sub, nil
}

// Thread returns a thread's leader and children for groupKey.
func (s *ResolveService) Thread(ctx context.Context, groupKey string) ([]domain.Submission, error) {
	subs, err := repo.ListThread(ctx, s.DB, groupKey)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrThreadNotFound
	}
	return subs, nil
}
