// Repository functions for the append-only review event log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// AppendEvent writes one immutable review event.
func AppendEvent(ctx context.Context, db *gorm.DB, e *domain.ReviewEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// ListEvents returns up to limit events for a thread, newest first.
func ListEvents(ctx context.Context, db *gorm.DB, groupKey string, limit int) ([]domain.ReviewEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.ReviewEvent
	err := db.WithContext(ctx).
		Where("group_key = ?", groupKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
