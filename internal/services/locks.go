// Thread lock manager.
//
// Locks give each review thread at most one concurrent reviewer. They are
// durable rows with TTL-based expiry computed at read time, so correctness
// survives process restarts and horizontal scaling. Enforcement happens at
// every mutating submission operation, not only at claim time: a claim that
// silently expired does not let a stale holder bypass a newer claimant.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// LockService implements claim/release/status over thread locks.
type LockService struct {
	DB    *gorm.DB
	TTL   time.Duration
	Audit *AuditService

	// now is a seam for expiry tests.
	now func() time.Time
}

// NewLockService builds a lock service with the given TTL.
func NewLockService(db *gorm.DB, ttl time.Duration, audit *AuditService) *LockService {
	return &LockService{DB: db, TTL: ttl, Audit: audit, now: time.Now}
}

// LockStatus describes a thread's lock as seen by one caller.
type LockStatus struct {
	Locked     bool      `json:"locked"`
	Expired    bool      `json:"expired"`
	Holder     string    `json:"holder,omitempty"`
	HolderRole string    `json:"holderRole,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt,omitempty"`
	Held       bool      `json:"held"` // caller is the live holder
}

// Claim acquires or refreshes the lock on groupKey for actor. A lock that
// is unheld, expired, or already held by actor is (re)claimed with a fresh
// acquisition time; a live lock held by someone else rejects with a
// ThreadLockedError naming the holder.
func (s *LockService) Claim(ctx context.Context, groupKey string, actor domain.Identity) (*domain.ThreadLock, error) {
	now := s.now()
	var claimed *domain.ThreadLock
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetLock(ctx, tx, groupKey)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if cur != nil && !cur.Expired(now, s.TTL) && cur.HolderEmail != actor.Email {
			return &ThreadLockedError{Holder: cur.HolderEmail}
		}
		claimed, err = repo.UpsertLock(ctx, tx, groupKey, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, actor, groupKey, nil, domain.ActionClaim, "claimed thread for review", nil)
	return claimed, nil
}

// Release drops the lock on groupKey. Only the holder or an admin may
// release; releasing a lock that does not exist succeeds as a no-op.
func (s *LockService) Release(ctx context.Context, groupKey string, actor domain.Identity) error {
	cur, err := repo.GetLock(ctx, s.DB, groupKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.HolderEmail != actor.Email && !actor.IsAdmin() {
		return ErrForbiddenRelease
	}
	if err := repo.DeleteLock(ctx, s.DB, groupKey); err != nil {
		return err
	}
	s.Audit.Record(ctx, actor, groupKey, nil, domain.ActionRelease, "released thread lock", nil)
	return nil
}

// Status reports the lock's state relative to the calling actor.
func (s *LockService) Status(ctx context.Context, groupKey string, actor domain.Identity) (LockStatus, error) {
	cur, err := repo.GetLock(ctx, s.DB, groupKey)
	if errors.Is(err, repo.ErrNotFound) {
		return LockStatus{}, nil
	}
	if err != nil {
		return LockStatus{}, err
	}
	now := s.now()
	expired := cur.Expired(now, s.TTL)
	return LockStatus{
		Locked:     !expired,
		Expired:    expired,
		Holder:     cur.HolderEmail,
		HolderRole: cur.HolderRole,
		AcquiredAt: cur.AcquiredAt,
		ExpiresAt:  cur.ExpiresAt(s.TTL),
		Held:       !expired && cur.HolderEmail == actor.Email,
	}, nil
}

// EnsureMutable rejects a mutation on a submission in a thread whose lock
// is live and held by someone other than actor. Admins bypass the check.
func (s *LockService) EnsureMutable(ctx context.Context, groupKey string, actor domain.Identity) error {
	if actor.IsAdmin() {
		return nil
	}
	cur, err := repo.GetLock(ctx, s.DB, groupKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !cur.Expired(s.now(), s.TTL) && cur.HolderEmail != actor.Email {
		return &ThreadLockedError{Holder: cur.HolderEmail}
	}
	return nil
}
