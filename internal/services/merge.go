// Merge engine.
//
// BuildMergedOfficial computes the official record to persist from three
// layers, lowest precedence first: the existing canonical record (when
// editing), the proposed patch, and the reviewer's explicit per-field
// overrides. Only fields in the Proposed allow-list participate; anything
// else a payload carried was already dropped at ingest.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/normalize"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// BuildMergedOfficial merges current (nil for a create), the proposed patch,
// and reviewer overrides into the record to persist.
//
// After the precedence pass:
//   - email is lowercased and trimmed, state uppercased and trimmed
//   - phone/issue/partner collections are coerced to non-nil slices
//   - verify forces the verified flag true regardless of other inputs
//   - the office category is re-normalized through the alias table, with
//     the role text as fallback inference; an unrecognized category string
//     is preserved for downstream validation
func BuildMergedOfficial(current *domain.Official, proposed, overrides domain.Proposed, verify bool) domain.Official {
	var merged domain.Official
	if current != nil {
		merged = *current
	}

	applyPatch(&merged, proposed)
	applyPatch(&merged, overrides)

	if merged.Email != nil {
		e := normalize.Email(*merged.Email)
		if e == "" {
			merged.Email = nil
		} else {
			merged.Email = &e
		}
	}
	merged.State = normalize.State(merged.State)
	if merged.Phones == nil {
		merged.Phones = []domain.Phone{}
	}
	if merged.Issues == nil {
		merged.Issues = []string{}
	}
	if merged.Partners == nil {
		merged.Partners = []string{}
	}
	if verify {
		merged.Verified = true
	}
	merged.Category = normalize.Category(merged.Category, merged.Role)
	return merged
}

// applyPatch copies every provided field of p onto o. Scalar zero values
// and nil slices mean "not provided" and leave o untouched.
func applyPatch(o *domain.Official, p domain.Proposed) {
	if p.FullName != "" {
		o.FullName = p.FullName
	}
	if p.Role != "" {
		o.Role = p.Role
	}
	if p.Email != "" {
		e := p.Email
		o.Email = &e
	}
	if p.State != "" {
		o.State = p.State
	}
	if p.Category != "" {
		o.Category = p.Category
	}
	if p.Level != "" {
		o.Level = p.Level
	}
	if p.City != "" {
		o.City = p.City
	}
	if p.County != "" {
		o.County = p.County
	}
	if p.District != "" {
		o.District = p.District
	}
	if p.Phones != nil {
		o.Phones = []domain.Phone(p.Phones)
	}
	if p.Issues != nil {
		o.Issues = []string(p.Issues)
	}
	if p.Partners != nil {
		o.Partners = []string(p.Partners)
	}
	if p.Verified != nil {
		o.Verified = *p.Verified
	}
}

// PersistMerged writes the merged record to the directory.
//
// For an edit with a known target the official is updated in place. For a
// create, an existing official with the merged email is updated instead of
// inserting a duplicate (idempotent-by-email). The unique index on email
// backstops the remaining race between two concurrent creates: the losing
// insert converts into an update of the winner's row.
func PersistMerged(ctx context.Context, db *gorm.DB, targetOfficialID string, merged domain.Official) (*domain.Official, error) {
	if targetOfficialID != "" {
		merged.ID = targetOfficialID
		if err := repo.UpdateOfficial(ctx, db, &merged); err != nil {
			return nil, mapNotFound(err, ErrOfficialNotFound)
		}
		return &merged, nil
	}

	if merged.Email != nil {
		existing, err := repo.GetOfficialByEmail(ctx, db, *merged.Email)
		if err == nil {
			merged.ID = existing.ID
			merged.CreatedAt = existing.CreatedAt
			if err := repo.UpdateOfficial(ctx, db, &merged); err != nil {
				return nil, err
			}
			return &merged, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	if err := repo.CreateOfficial(ctx, db, &merged); err != nil {
		if repo.IsDuplicateKey(err) && merged.Email != nil {
			// Lost the create race; the other writer's row is canonical now.
			winner, err2 := repo.GetOfficialByEmail(ctx, db, *merged.Email)
			if err2 != nil {
				return nil, err
			}
			merged.ID = winner.ID
			merged.CreatedAt = winner.CreatedAt
			if err2 := repo.UpdateOfficial(ctx, db, &merged); err2 != nil {
				return nil, err2
			}
			return &merged, nil
		}
		return nil, err
	}
	return &merged, nil
}
