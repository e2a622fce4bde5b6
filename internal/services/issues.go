// Issue resolver and curation.
//
// Free-text issue names map to stable issue IDs; first sight of a new name
// creates an unpublished ("pending") issue so ingest never blocks on
// curation. Merging consolidates aliases onto the target, redirects every
// official referencing the source, recounts usage, and deletes the source.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/normalize"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// IssueService implements issue resolution and curation use-cases.
type IssueService struct {
	DB *gorm.DB
}

// ResolveNames maps free-text issue names to issue IDs, creating pending
// issues for names never seen before. Inputs that already look like issue
// IDs (UUIDs) pass through unchanged. Order is preserved; blanks and
// duplicates are dropped.
func (s *IssueService) ResolveNames(ctx context.Context, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := uuid.Parse(name); err == nil {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, name)
			}
			continue
		}
		id, err := s.resolveOne(ctx, name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// resolveOne finds or creates the issue for one name.
func (s *IssueService) resolveOne(ctx context.Context, name string) (string, error) {
	slug := normalize.Slug(name)
	issue, err := repo.FindIssueBySlug(ctx, s.DB, slug)
	if err == nil {
		return issue.ID, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	created := &domain.Issue{Name: name, Slug: slug, Pending: true}
	if err := repo.CreateIssue(ctx, s.DB, created); err != nil {
		// Two concurrent first sights of the same name race on the slug
		// index; the loser re-reads the winner's row.
		if repo.IsDuplicateKey(err) {
			if issue, err2 := repo.FindIssueBySlug(ctx, s.DB, slug); err2 == nil {
				return issue.ID, nil
			}
		}
		return "", err
	}
	return created.ID, nil
}

// Create adds a curated (non-pending) issue directly.
func (s *IssueService) Create(ctx context.Context, name string, aliases []string) (*domain.Issue, error) {
	issue := &domain.Issue{
		Name:    strings.TrimSpace(name),
		Slug:    normalize.Slug(name),
		Aliases: aliases,
		Pending: false,
	}
	if issue.Name == "" {
		return nil, &ValidationError{Messages: []string{"issue name is required"}}
	}
	if err := repo.CreateIssue(ctx, s.DB, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Search lists issues matching a name-or-alias substring.
func (s *IssueService) Search(ctx context.Context, query string, limit int) ([]domain.Issue, error) {
	return repo.SearchIssues(ctx, s.DB, query, limit)
}

// Merge folds the source issue into the target: aliases consolidate onto
// the target, every official referencing the source is redirected, usage is
// recounted, and the source row is deleted.
func (s *IssueService) Merge(ctx context.Context, targetID, sourceID string) (*domain.Issue, error) {
	if targetID == sourceID {
		return nil, &ValidationError{Messages: []string{"cannot merge an issue into itself"}}
	}
	var merged *domain.Issue
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := repo.GetIssue(ctx, tx, targetID)
		if err != nil {
			return mapNotFound(err, ErrIssueNotFound)
		}
		source, err := repo.GetIssue(ctx, tx, sourceID)
		if err != nil {
			return mapNotFound(err, ErrIssueNotFound)
		}

		refs, err := repo.ListOfficialsReferencingIssue(ctx, tx, source.ID)
		if err != nil {
			return err
		}
		for i := range refs {
			o := &refs[i]
			o.Issues = replaceID(o.Issues, source.ID, target.ID)
			if err := repo.UpdateOfficial(ctx, tx, o); err != nil {
				return err
			}
		}

		aliases := mergeAliases(target.Aliases, source.Aliases, source.Name)
		usage, err := repo.CountIssueUsage(ctx, tx, target.ID)
		if err != nil {
			return err
		}
		if err := repo.UpdateIssue(ctx, tx, target.ID, map[string]any{
			"aliases":     aliases,
			"usage_count": usage,
		}); err != nil {
			return err
		}
		if err := repo.DeleteIssue(ctx, tx, source.ID); err != nil {
			return err
		}
		target.Aliases = aliases
		target.UsageCount = int(usage)
		merged = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Recount refreshes one issue's usage count from the directory.
func (s *IssueService) Recount(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := repo.GetIssue(ctx, s.DB, id)
	if err != nil {
		return nil, mapNotFound(err, ErrIssueNotFound)
	}
	usage, err := repo.CountIssueUsage(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateIssue(ctx, s.DB, id, map[string]any{"usage_count": usage}); err != nil {
		return nil, err
	}
	issue.UsageCount = int(usage)
	return issue, nil
}

// replaceID swaps old for new in a reference list, dropping a duplicate if
// the list already held new.
func replaceID(ids []string, old, new string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == old {
			id = new
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// mergeAliases unions alias lists plus the absorbed issue's display name.
func mergeAliases(target, source []string, sourceName string) []string {
	seen := make(map[string]struct{}, len(target)+len(source)+1)
	out := make([]string, 0, len(target)+len(source)+1)
	for _, a := range append(append(append([]string{}, target...), source...), sourceName) {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// mapNotFound converts a repo ErrNotFound into the given service sentinel,
// passing other errors through.
func mapNotFound(err, sentinel error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return sentinel
	}
	return err
}
