// Repository functions for the canonical officials directory.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the thin-repository
// approach: no business logic, only CRUD persistence and query composition.
// Missing records surface as ErrNotFound.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// CreateOfficial inserts a new official, assigning a UUID when absent.
func CreateOfficial(ctx context.Context, db *gorm.DB, o *domain.Official) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	return db.WithContext(ctx).Create(o).Error
}

// UpdateOfficial saves the full official record by primary key. Every
// column is written, zero values included, so a merge that clears a field
// (an un-verify override, an emptied phone list) actually reaches the store.
func UpdateOfficial(ctx context.Context, db *gorm.DB, o *domain.Official) error {
	o.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Official{}).
		Where("id = ?", o.ID).
		Select("*").Omit("id", "created_at").
		Updates(o)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOfficial fetches one official by ID, or ErrNotFound.
func GetOfficial(ctx context.Context, db *gorm.DB, id string) (*domain.Official, error) {
	var o domain.Official
	if err := db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOfficialByEmail fetches the official with the given email
// (case-insensitive), or ErrNotFound. Email is globally unique.
func GetOfficialByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Official, error) {
	var o domain.Official
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// RegionFilter narrows candidate queries to a geographic scope. Zero-valued
// fields are not applied.
type RegionFilter struct {
	State  string
	Level  string
	City   string
	County string
}

// ListOfficialsByRegion returns officials in the given scope, used by the
// matcher to bound fuzzy scoring to plausible candidates.
func ListOfficialsByRegion(ctx context.Context, db *gorm.DB, f RegionFilter) ([]domain.Official, error) {
	q := db.WithContext(ctx).Model(&domain.Official{})
	if f.State != "" {
		q = q.Where("state = ?", strings.ToUpper(f.State))
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.County != "" {
		q = q.Where("LOWER(county) = ?", strings.ToLower(f.County))
	}
	var out []domain.Official
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// OfficialQuery is the directory browse filter.
type OfficialQuery struct {
	RegionFilter
	Search string // substring over full name and role
}

// CountOfficials returns the number of officials matching q.
func CountOfficials(ctx context.Context, db *gorm.DB, q OfficialQuery) (int64, error) {
	var n int64
	err := officialQuery(db.WithContext(ctx), q).Count(&n).Error
	return n, err
}

// ListOfficialsPage returns one page of the directory ordered by name.
func ListOfficialsPage(ctx context.Context, db *gorm.DB, q OfficialQuery, offset, limit int) ([]domain.Official, error) {
	var out []domain.Official
	err := officialQuery(db.WithContext(ctx), q).
		Order("full_name ASC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

func officialQuery(db *gorm.DB, q OfficialQuery) *gorm.DB {
	tx := db.Model(&domain.Official{})
	if q.State != "" {
		tx = tx.Where("state = ?", strings.ToUpper(q.State))
	}
	if q.Level != "" {
		tx = tx.Where("level = ?", q.Level)
	}
	if q.City != "" {
		tx = tx.Where("LOWER(city) = ?", strings.ToLower(q.City))
	}
	if q.County != "" {
		tx = tx.Where("LOWER(county) = ?", strings.ToLower(q.County))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(full_name) LIKE ? OR LOWER(role) LIKE ?", like, like)
	}
	return tx
}
