package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

func TestResolveNames(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	ctx := context.Background()

	existing, err := svc.Create(ctx, "Housing", []string{"Affordable Housing"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	passthrough := uuid.NewString()
	ids, err := svc.ResolveNames(ctx, []string{
		"Housing",     // existing, by slug
		passthrough,   // already an ID
		"Transit",     // unseen, becomes pending
		"  housing  ", // folds to the same slug, deduped
		"",            // dropped
		passthrough,   // duplicate ID, deduped
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 resolved IDs, got %v", ids)
	}
	if ids[0] != existing.ID {
		t.Fatalf("known name should map to its issue: %v", ids)
	}
	if ids[1] != passthrough {
		t.Fatalf("UUIDs pass through: %v", ids)
	}

	created, err := repo.GetIssue(ctx, svc.DB, ids[2])
	if err != nil {
		t.Fatalf("pending issue should exist: %v", err)
	}
	if !created.Pending || created.Name != "Transit" {
		t.Fatalf("first-sight issue: %+v", created)
	}

	// Resolving the same name again reuses the row.
	again, err := svc.ResolveNames(ctx, []string{"Transit"})
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if len(again) != 1 || again[0] != created.ID {
		t.Fatalf("re-resolution should be stable: %v", again)
	}
}

func TestIssueCreate_Validation(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	var ve *ValidationError
	if _, err := svc.Create(context.Background(), "   ", nil); !errors.As(err, &ve) {
		t.Fatalf("blank name should fail validation, got %v", err)
	}

	issue, err := svc.Create(context.Background(), "Public Safety", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if issue.Pending {
		t.Fatalf("curated issue should not be pending")
	}
	if issue.Slug != "public-safety" {
		t.Fatalf("slug: %q", issue.Slug)
	}
}

func TestIssueMerge(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	ctx := context.Background()

	target, err := svc.Create(ctx, "Housing", []string{"Affordable Housing"})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	source, err := svc.Create(ctx, "Housing Policy", []string{"Zoning", "affordable housing"})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}

	ref := domain.Official{
		FullName: "Jane Doe", Role: "Mayor", State: "TX",
		Category: "mayor", Level: domain.LevelMunicipal, City: "Austin",
		Issues: []string{source.ID, target.ID},
	}
	if err := repo.CreateOfficial(ctx, svc.DB, &ref); err != nil {
		t.Fatalf("seed official: %v", err)
	}

	merged, err := svc.Merge(ctx, target.ID, source.ID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Aliases union case-insensitively and absorb the source's name.
	want := map[string]bool{"Affordable Housing": true, "Zoning": true, "Housing Policy": true}
	if len(merged.Aliases) != len(want) {
		t.Fatalf("aliases: %v", merged.Aliases)
	}
	for _, a := range merged.Aliases {
		if !want[a] {
			t.Fatalf("unexpected alias %q in %v", a, merged.Aliases)
		}
	}

	// The referencing official now points only at the target, once.
	reloaded, err := repo.GetOfficial(ctx, svc.DB, ref.ID)
	if err != nil {
		t.Fatalf("reload official: %v", err)
	}
	if len(reloaded.Issues) != 1 || reloaded.Issues[0] != target.ID {
		t.Fatalf("redirect: %v", reloaded.Issues)
	}

	if merged.UsageCount != 1 {
		t.Fatalf("usage after merge: %d", merged.UsageCount)
	}
	if _, err := repo.GetIssue(ctx, svc.DB, source.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("source should be deleted, got %v", err)
	}
}

func TestIssueMerge_Guards(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	ctx := context.Background()

	issue, err := svc.Create(ctx, "Housing", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var ve *ValidationError
	if _, err := svc.Merge(ctx, issue.ID, issue.ID); !errors.As(err, &ve) {
		t.Fatalf("self-merge should fail validation, got %v", err)
	}
	if _, err := svc.Merge(ctx, issue.ID, uuid.NewString()); err != ErrIssueNotFound {
		t.Fatalf("missing source: %v", err)
	}
	if _, err := svc.Merge(ctx, uuid.NewString(), issue.ID); err != ErrIssueNotFound {
		t.Fatalf("missing target: %v", err)
	}
}

func TestIssueRecount(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	ctx := context.Background()

	issue, err := svc.Create(ctx, "Housing", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, name := range []string{"Jane Doe", "Bob Roe"} {
		o := domain.Official{
			FullName: name, Role: "Mayor", State: "TX",
			Category: "mayor", Level: domain.LevelMunicipal, City: "Austin",
			Issues: []string{issue.ID},
		}
		if err := repo.CreateOfficial(ctx, svc.DB, &o); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := svc.Recount(ctx, issue.ID)
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if got.UsageCount != 2 {
		t.Fatalf("usage: %d", got.UsageCount)
	}

	if _, err := svc.Recount(ctx, uuid.NewString()); err != ErrIssueNotFound {
		t.Fatalf("missing issue: %v", err)
	}
}

func TestIssueSearch(t *testing.T) {
	svc := &IssueService{DB: newServiceDB(t)}
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Housing", []string{"Zoning"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Transit", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	byName, err := svc.Search(ctx, "hous", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Housing" {
		t.Fatalf("by name: %+v", byName)
	}

	byAlias, err := svc.Search(ctx, "zon", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byAlias) != 1 || byAlias[0].Name != "Housing" {
		t.Fatalf("by alias: %+v", byAlias)
	}
}
