// Repository functions for canonical issue tags.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// CreateIssue inserts a new issue, assigning a UUID when absent.
func CreateIssue(ctx context.Context, db *gorm.DB, i *domain.Issue) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now
	return db.WithContext(ctx).Create(i).Error
}

// GetIssue fetches one issue by ID, or ErrNotFound.
func GetIssue(ctx context.Context, db *gorm.DB, id string) (*domain.Issue, error) {
	var i domain.Issue
	if err := db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// FindIssueBySlug fetches the issue with the given normalized key, or
// ErrNotFound.
func FindIssueBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Issue, error) {
	var i domain.Issue
	if err := db.WithContext(ctx).First(&i, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// SearchIssues returns issues whose name, slug, or alias list contains the
// query substring (case-insensitive), name order.
func SearchIssues(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Issue, error) {
	if limit <= 0 {
		limit = 50
	}
	tx := db.WithContext(ctx).Model(&domain.Issue{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		// Aliases is a JSON array column; LIKE over its serialized form
		// implements the substring contract.
		tx = tx.Where("LOWER(name) LIKE ? OR slug LIKE ? OR LOWER(aliases) LIKE ?", like, like, like)
	}
	var out []domain.Issue
	err := tx.Order("name ASC").Limit(limit).Find(&out).Error
	return out, err
}

// UpdateIssue applies a partial column update to one issue.
func UpdateIssue(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Issue{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIssue removes an issue row. Used only by issue merges after all
// references have been redirected.
func DeleteIssue(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Delete(&domain.Issue{}, "id = ?", id).Error
}

// ListOfficialsReferencingIssue returns officials whose issue set contains
// the given issue ID. Issues live in a JSON array column, so containment is
// a LIKE over the serialized form.
func ListOfficialsReferencingIssue(ctx context.Context, db *gorm.DB, issueID string) ([]domain.Official, error) {
	var out []domain.Official
	err := db.WithContext(ctx).
		Where(`issues LIKE ?`, `%"`+issueID+`"%`).
		Find(&out).Error
	return out, err
}

// CountIssueUsage returns how many officials reference the issue.
func CountIssueUsage(ctx context.Context, db *gorm.DB, issueID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Official{}).
		Where(`issues LIKE ?`, `%"`+issueID+`"%`).
		Count(&n).Error
	return n, err
}
