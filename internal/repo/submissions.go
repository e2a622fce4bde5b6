// Repository functions for submissions and review threads.
//
// A thread is the set of submissions sharing a group key; exactly one of
// them (the leader) has a nil LeaderID. Submissions are append-only: rows
// are created and status-transitioned, never deleted.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// CreateSubmission inserts a new submission, assigning a UUID when absent.
func CreateSubmission(ctx context.Context, db *gorm.DB, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	return db.WithContext(ctx).Create(s).Error
}

// GetSubmission fetches one submission by ID, or ErrNotFound.
func GetSubmission(ctx context.Context, db *gorm.DB, id string) (*domain.Submission, error) {
	var s domain.Submission
	if err := db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSubmission applies a partial column update to one submission.
func UpdateSubmission(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Submission{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindOpenLeader returns the thread leader for groupKey while it is still
// awaiting review (pending or conflict), or ErrNotFound. New rows for the
// same key attach to this leader instead of opening a second thread.
func FindOpenLeader(ctx context.Context, db *gorm.DB, groupKey string) (*domain.Submission, error) {
	var s domain.Submission
	err := db.WithContext(ctx).
		Where("group_key = ? AND leader_id IS NULL AND status IN ?",
			groupKey, []string{domain.StatusPending, domain.StatusConflict}).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AttachChild links a child submission to its leader and refreshes the
// leader's related count and variant previews, atomically. The caller's
// leader may be a stale snapshot when two children attach concurrently, so
// the variant list is re-read inside the transaction and the count bumped
// in SQL rather than computed from the snapshot.
func AttachChild(ctx context.Context, db *gorm.DB, leader *domain.Submission, child *domain.Submission) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		child.LeaderID = &leader.ID
		if err := CreateSubmission(ctx, tx, child); err != nil {
			return err
		}
		var cur domain.Submission
		if err := tx.First(&cur, "id = ?", leader.ID).Error; err != nil {
			return err
		}
		variants := append(cur.Variants, domain.Variant{
			SubmissionID: child.ID,
			Submitter:    child.SubmitterEmail,
			FullName:     child.Proposed.FullName,
			Role:         child.Proposed.Role,
			Email:        child.Proposed.Email,
			CreatedAt:    child.CreatedAt,
		})
		return UpdateSubmission(ctx, tx, leader.ID, map[string]any{
			"related_count": gorm.Expr("related_count + ?", 1),
			"variants":      variants,
		})
	})
}

// ListThread returns every submission in a thread, leader first, then
// children oldest first.
func ListThread(ctx context.Context, db *gorm.DB, groupKey string) ([]domain.Submission, error) {
	var out []domain.Submission
	err := db.WithContext(ctx).
		Where("group_key = ?", groupKey).
		Order("leader_id IS NOT NULL, created_at ASC").
		Find(&out).Error
	return out, err
}

// ThreadQuery filters the thread-leader listing.
type ThreadQuery struct {
	Status string // exact status, empty for all
	Search string // substring over proposed name, role, submitter
}

// CountThreadLeaders returns the number of leaders matching q.
func CountThreadLeaders(ctx context.Context, db *gorm.DB, q ThreadQuery) (int64, error) {
	var n int64
	err := leaderQuery(db.WithContext(ctx), q).Count(&n).Error
	return n, err
}

// ListThreadLeadersPage returns one page of thread leaders, newest first.
func ListThreadLeadersPage(ctx context.Context, db *gorm.DB, q ThreadQuery, offset, limit int) ([]domain.Submission, error) {
	var out []domain.Submission
	err := leaderQuery(db.WithContext(ctx), q).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

func leaderQuery(db *gorm.DB, q ThreadQuery) *gorm.DB {
	tx := db.Model(&domain.Submission{}).Where("leader_id IS NULL")
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		// Proposed is a JSON column; a LIKE over its serialized form is the
		// match the list view needs.
		tx = tx.Where("LOWER(proposed) LIKE ? OR LOWER(submitter_email) LIKE ?", like, like)
	}
	return tx
}

// SupersedeSiblings marks every still-open submission in the thread except
// exceptID as superseded. Returns the number of rows transitioned.
func SupersedeSiblings(ctx context.Context, db *gorm.DB, groupKey, exceptID string) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Submission{}).
		Where("group_key = ? AND id <> ? AND status IN ?",
			groupKey, exceptID, []string{domain.StatusPending, domain.StatusConflict}).
		Updates(map[string]any{
			"status":     domain.StatusSuperseded,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// IncrementVotes bumps a submission's vote tally by delta.
func IncrementVotes(ctx context.Context, db *gorm.DB, id string, delta int) error {
	res := db.WithContext(ctx).Model(&domain.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"votes":      gorm.Expr("votes + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
