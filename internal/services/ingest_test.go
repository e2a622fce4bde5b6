package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

func seedDirectory(t *testing.T, db *gorm.DB, name, role, email string) *domain.Official {
	t.Helper()
	o := domain.Official{
		FullName: name, Role: role,
		State: "TX", Category: "mayor", Level: domain.LevelMunicipal, City: "Austin",
	}
	if email != "" {
		o.Email = strPtr(email)
	}
	if err := repo.CreateOfficial(context.Background(), db, &o); err != nil {
		t.Fatalf("seed official: %v", err)
	}
	return &o
}

func newIngest(t *testing.T) (*IngestService, *gorm.DB) {
	t.Helper()
	db := newServiceDB(t)
	return &IngestService{
		DB:      db,
		Matcher: NewMatcher(db, testMatchCfg()),
		Issues:  &IssueService{DB: db},
	}, db
}

func TestSubmit_CreatePending(t *testing.T) {
	svc, _ := newIngest(t)
	ctx := context.Background()

	p := proposedMayor()
	p.Email = "jane@austin.gov"
	p.Issues = domain.StringList{"Housing"}
	p.Phones = domain.PhoneList{
		{Number: "(512) 555-0100 ext 4"},
		{Number: "not a phone"},
	}

	res, err := svc.Submit(ctx, p, moderator)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	sub := res.Submission
	if sub.Kind != domain.KindCreate || sub.Status != domain.StatusPending {
		t.Fatalf("fresh submission should be a pending create: %+v", sub)
	}
	if sub.GroupKey != "email:jane@austin.gov" {
		t.Fatalf("group key: %q", sub.GroupKey)
	}
	if res.Duplicate || res.Converted {
		t.Fatalf("unexpected flags: %+v", res)
	}

	// The undialable phone is discarded and the survivor normalized.
	if len(sub.Proposed.Phones) != 1 || sub.Proposed.Phones[0].Number != "+15125550100" {
		t.Fatalf("phones: %+v", sub.Proposed.Phones)
	}

	// The unseen issue name became a pending issue's ID.
	if len(sub.Proposed.Issues) != 1 {
		t.Fatalf("issues: %+v", sub.Proposed.Issues)
	}
	iss, err := repo.GetIssue(ctx, svc.DB, sub.Proposed.Issues[0])
	if err != nil {
		t.Fatalf("resolved issue should exist: %v", err)
	}
	if !iss.Pending || iss.Name != "Housing" {
		t.Fatalf("issue: %+v", iss)
	}
}

func TestSubmit_EmailMatchBecomesEdit(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()
	official := seedDirectory(t, db, "Janet Dowd", "Treasurer", "jane@austin.gov")

	p := proposedMayor()
	p.Email = "jane@austin.gov"
	res, err := svc.Submit(ctx, p, moderator)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	sub := res.Submission
	if sub.Kind != domain.KindEdit {
		t.Fatalf("email match should convert to edit: %+v", sub)
	}
	if sub.TargetOfficialID == nil || *sub.TargetOfficialID != official.ID {
		t.Fatalf("target: %v", sub.TargetOfficialID)
	}
	if sub.GroupKey != "official:"+official.ID {
		t.Fatalf("edits group by target: %q", sub.GroupKey)
	}
	if res.Converted {
		t.Fatalf("an email match is not a fuzzy conversion")
	}
}

func TestSubmit_FuzzyMatchConvertsCreate(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()
	official := seedDirectory(t, db, "Jane Doe", "Mayor", "")

	res, err := svc.Submit(ctx, proposedMayor(), moderator)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	sub := res.Submission
	if sub.Kind != domain.KindEdit || !res.Converted {
		t.Fatalf("confident fuzzy match should convert the create: %+v, %+v", sub, res)
	}
	if sub.TargetOfficialID == nil || *sub.TargetOfficialID != official.ID {
		t.Fatalf("target: %v", sub.TargetOfficialID)
	}
}

func TestSubmit_AmbiguousMatchIsConflict(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()
	// Identical name, overlapping role: 0.7 + 0.3*(1/3) = 0.8, between the
	// soft (0.75) and hard (0.88) thresholds.
	seedDirectory(t, db, "Jane Doe", "Mayor Pro Tem", "")

	res, err := svc.Submit(ctx, proposedMayor(), moderator)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	sub := res.Submission
	if sub.Kind != domain.KindCreate || sub.Status != domain.StatusConflict {
		t.Fatalf("ambiguous match should flag a conflict create: %+v", sub)
	}
	if len(sub.Dedupe.Candidates) == 0 {
		t.Fatalf("conflict should carry the candidate evidence")
	}
}

func TestSubmit_ThreadingAndDuplicates(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, proposedMayor(), moderator)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	leaderID := first.Submission.ID

	// A differing row in the same thread attaches as a child.
	variant := proposedMayor()
	variant.District = "4"
	second, err := svc.Submit(ctx, variant, moderator)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Submission.LeaderID == nil || *second.Submission.LeaderID != leaderID {
		t.Fatalf("second row should attach to the leader: %+v", second.Submission)
	}
	if second.Duplicate || second.Submission.Status != domain.StatusPending {
		t.Fatalf("distinct payload should stay pending: %+v", second)
	}

	// A byte-identical payload is demoted to duplicate but still kept.
	third, err := svc.Submit(ctx, proposedMayor(), moderator)
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if !third.Duplicate || third.Submission.Status != domain.StatusDuplicate {
		t.Fatalf("identical payload should demote to duplicate: %+v", third)
	}

	leader, err := repo.GetSubmission(ctx, db, leaderID)
	if err != nil {
		t.Fatalf("reload leader: %v", err)
	}
	if leader.RelatedCount != 2 || len(leader.Variants) != 2 {
		t.Fatalf("leader accounting: related=%d variants=%d", leader.RelatedCount, len(leader.Variants))
	}
}

func TestProcessRow_ValidationMessages(t *testing.T) {
	svc, _ := newIngest(t)

	_, err := svc.ProcessRow(context.Background(), map[string]any{
		"name":  "Jane Doe",
		"email": "not-an-email",
		"state": "Texas",
		"level": "galactic",
	}, moderator)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	joined := strings.Join(ve.Messages, "; ")
	for _, want := range []string{"role is required", "state must be a 2-letter code", "category is required", "level", "email"} {
		if !strings.Contains(joined, want) {
			t.Errorf("messages missing %q: %v", want, ve.Messages)
		}
	}
}

func TestProcessRows_RowIndependenceAndOffsets(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()

	rows := []map[string]any{
		{"name": "Jane Doe", "role": "Mayor", "state": "TX", "category": "mayor", "level": "municipal", "city": "Austin"},
		{"name": ""}, // fails validation
		{"name": "Bob Roe", "role": "Clerk", "state": "TX", "category": "clerk", "level": "regional", "county": "Travis"},
	}

	sum := svc.ProcessRows(ctx, rows, moderator, 100)
	if sum.Created != 2 || sum.Failed != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if len(sum.Errors) != 1 || sum.Errors[0].Row != 102 {
		t.Fatalf("row errors should be offset+1-based: %+v", sum.Errors)
	}

	var n int64
	if err := db.Model(&domain.Submission{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("good rows should persist despite the bad one, got %d", n)
	}
}

func TestProcessRows_SummaryBuckets(t *testing.T) {
	svc, db := newIngest(t)
	ctx := context.Background()
	seedDirectory(t, db, "Jane Doe", "Mayor", "jane@austin.gov")

	rows := []map[string]any{
		// Email match: counted as an edit.
		{"name": "Jane Doe", "role": "Mayor", "email": "jane@austin.gov", "state": "TX", "category": "mayor", "level": "municipal", "city": "Austin"},
		// No match anywhere near: a create.
		{"name": "Carol Quinn", "role": "Assessor", "state": "WA", "category": "assessor", "level": "state"},
	}
	sum := svc.ProcessRows(ctx, rows, moderator, 0)
	if sum.Edits != 1 || sum.Created != 1 || sum.Failed != 0 {
		t.Fatalf("summary: %+v", sum)
	}
}
