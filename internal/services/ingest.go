// Ingest pipeline.
//
// Rows from a single submission, a pasted JSON array, or a parsed
// spreadsheet all flow through the same per-row pipeline: normalize field
// names into the typed proposed shape, validate, resolve issue names,
// normalize phones, classify against the directory, compute the grouping
// key, and persist as a thread leader or child. Rows are independent: one
// row's failure never affects another's persistence, and errors come back
// row-indexed (1-based) instead of aborting the batch.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/normalize"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// IngestSummary is the per-batch accounting returned to callers.
type IngestSummary struct {
	Created    int               `json:"created"`
	Edits      int               `json:"edits"`
	Conflicts  int               `json:"conflicts"`
	Duplicates int               `json:"duplicates"`
	Failed     int               `json:"failed"`
	Errors     []domain.RowError `json:"errors,omitempty"`
}

// RowResult describes the fate of one ingested row.
type RowResult struct {
	Submission *domain.Submission
	Duplicate  bool
	Converted  bool // create converted to edit by a confident match
}

// IngestService drives the row pipeline.
type IngestService struct {
	DB      *gorm.DB
	Matcher *Matcher
	Issues  *IssueService
}

// ProcessRows runs the pipeline over a batch of raw rows on behalf of
// actor. Row indices in the returned errors are offset+1-based so batched
// workers can report positions within the whole upload.
func (s *IngestService) ProcessRows(ctx context.Context, rows []map[string]any, actor domain.Identity, offset int) IngestSummary {
	var sum IngestSummary
	for i, raw := range rows {
		res, err := s.ProcessRow(ctx, raw, actor)
		if err != nil {
			sum.Failed++
			ingestRows.WithLabelValues("error").Inc()
			var ve *ValidationError
			msgs := []string{err.Error()}
			if errors.As(err, &ve) {
				msgs = ve.Messages
			}
			sum.Errors = append(sum.Errors, domain.RowError{Row: offset + i + 1, Messages: msgs})
			continue
		}
		switch {
		case res.Duplicate:
			sum.Duplicates++
			ingestRows.WithLabelValues("duplicate").Inc()
		case res.Submission.Status == domain.StatusConflict:
			sum.Conflicts++
			ingestRows.WithLabelValues("conflict").Inc()
		case res.Converted || res.Submission.Kind == domain.KindEdit:
			sum.Edits++
			ingestRows.WithLabelValues("edit").Inc()
		default:
			sum.Created++
			ingestRows.WithLabelValues("created").Inc()
		}
	}
	return sum
}

// ProcessRow runs the full pipeline for one raw row.
func (s *IngestService) ProcessRow(ctx context.Context, raw map[string]any, actor domain.Identity) (*RowResult, error) {
	proposed, parseErrs := normalize.Row(raw)
	if msgs := validateProposed(proposed, parseErrs); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	return s.Submit(ctx, proposed, actor)
}

// Submit runs the classification and persistence stages for an
// already-shaped proposed record (the single-submission API entry point).
func (s *IngestService) Submit(ctx context.Context, proposed domain.Proposed, actor domain.Identity) (*RowResult, error) {
	if msgs := validateProposed(proposed, nil); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	// Issue names become stable IDs; unseen names create pending issues.
	issueIDs, err := s.Issues.ResolveNames(ctx, proposed.Issues)
	if err != nil {
		return nil, err
	}
	proposed.Issues = domain.StringList(issueIDs)

	// Phones that cannot be coerced to dialable form are discarded.
	phones := make([]domain.Phone, 0, len(proposed.Phones))
	for _, ph := range proposed.Phones {
		if n := normalize.Phone(ph.Number); n != "" {
			ph.Number = n
			ph.Rank = len(phones)
			phones = append(phones, ph)
		}
	}
	proposed.Phones = domain.PhoneList(phones)
	proposed.Category = normalize.Category(proposed.Category, proposed.Role)

	match, err := s.Matcher.Match(ctx, proposed)
	if err != nil {
		return nil, err
	}

	kind := domain.KindCreate
	status := domain.StatusPending
	var target *string
	converted := false
	switch {
	case match.Method == MatchMethodEmail || match.Method == MatchMethodFuzzy:
		kind = domain.KindEdit
		id := match.OfficialID
		target = &id
		converted = match.Method == MatchMethodFuzzy
	case s.Matcher.Ambiguous(match):
		status = domain.StatusConflict
	}

	sub := &domain.Submission{
		Kind:             kind,
		TargetOfficialID: target,
		Proposed:         proposed,
		SubmitterEmail:   actor.Email,
		SubmitterRole:    actor.Role,
		Status:           status,
		Dedupe:           match,
		GroupKey:         GroupKey(proposed, kind, match.OfficialID),
	}

	dup, err := s.persist(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &RowResult{Submission: sub, Duplicate: dup, Converted: converted}, nil
}

// persist attaches the submission to its thread: the first open row for a
// group key becomes the leader, later rows become children (exact payload
// duplicates are demoted to duplicate status but still kept for
// provenance). Returns whether the row was a duplicate.
func (s *IngestService) persist(ctx context.Context, sub *domain.Submission) (bool, error) {
	leader, err := repo.FindOpenLeader(ctx, s.DB, sub.GroupKey)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return false, err
		}
		return false, repo.CreateSubmission(ctx, s.DB, sub)
	}

	thread, err := repo.ListThread(ctx, s.DB, sub.GroupKey)
	if err != nil {
		return false, err
	}
	dup := false
	for i := range thread {
		if ExactDuplicate(thread[i].Proposed, sub.Proposed) {
			dup = true
			break
		}
	}
	if dup {
		sub.Status = domain.StatusDuplicate
	}
	if err := repo.AttachChild(ctx, s.DB, leader, sub); err != nil {
		return false, err
	}
	log.Debug().
		Str("group_key", sub.GroupKey).
		Str("leader_id", leader.ID).
		Bool("duplicate", dup).
		Msg("submission attached to thread")
	return dup, nil
}

// validateProposed applies the required-field contract. Returned messages
// are client-correctable; an empty slice means the record is acceptable.
func validateProposed(p domain.Proposed, parseErrs []string) []string {
	msgs := append([]string{}, parseErrs...)
	if p.FullName == "" {
		msgs = append(msgs, "fullName is required")
	}
	if p.Role == "" {
		msgs = append(msgs, "role is required")
	}
	if len(p.State) != 2 {
		msgs = append(msgs, "state must be a 2-letter code")
	}
	if p.Category == "" {
		msgs = append(msgs, "category is required")
	}
	if !domain.ValidLevel(p.Level) {
		msgs = append(msgs, fmt.Sprintf("level %q is not one of federal/state/municipal/regional/tribal", p.Level))
	}
	if p.Email != "" && !normalize.WellFormedEmail(p.Email) {
		msgs = append(msgs, fmt.Sprintf("email %q is malformed", p.Email))
	}
	return msgs
}
