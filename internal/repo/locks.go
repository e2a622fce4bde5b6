// Repository functions for thread locks.
//
// A lock row is keyed by the thread's group key. Liveness is decided by the
// caller from AcquiredAt plus the configured TTL; nothing here runs timers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// GetLock fetches the lock row for groupKey, or ErrNotFound.
func GetLock(ctx context.Context, db *gorm.DB, groupKey string) (*domain.ThreadLock, error) {
	var l domain.ThreadLock
	if err := db.WithContext(ctx).First(&l, "group_key = ?", groupKey).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// UpsertLock creates or refreshes the lock row for groupKey with the given
// holder and acquisition time.
func UpsertLock(ctx context.Context, db *gorm.DB, groupKey string, holder domain.Identity, at time.Time) (*domain.ThreadLock, error) {
	l := domain.ThreadLock{
		GroupKey:    groupKey,
		HolderEmail: holder.Email,
		HolderRole:  holder.Role,
		AcquiredAt:  at.UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"holder_email", "holder_role", "acquired_at"}),
	}).Create(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLock removes the lock row for groupKey. Deleting a missing lock is
// a no-op.
func DeleteLock(ctx context.Context, db *gorm.DB, groupKey string) error {
	return db.WithContext(ctx).Delete(&domain.ThreadLock{}, "group_key = ?", groupKey).Error
}
