// Audit log.
//
// Every reviewer action on a thread appends an immutable ReviewEvent. A
// failed audit write must never block the action it describes, so Record
// logs the failure and swallows it.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// AuditService appends and lists review events.
type AuditService struct {
	DB *gorm.DB
}

// Record appends one review event. Write failures are logged at warn and
// swallowed.
func (s *AuditService) Record(ctx context.Context, actor domain.Identity, groupKey string, submissionID *string, action, summary string, payload map[string]any) {
	if s == nil || s.DB == nil {
		return
	}
	e := &domain.ReviewEvent{
		GroupKey:     groupKey,
		SubmissionID: submissionID,
		ActorEmail:   actor.Email,
		ActorRole:    actor.Role,
		Action:       action,
		Summary:      summary,
		Payload:      payload,
	}
	if err := repo.AppendEvent(ctx, s.DB, e); err != nil {
		log.Warn().
			Err(err).
			Str("group_key", groupKey).
			Str("action", action).
			Msg("audit write failed")
	}
}

// Feed returns up to limit events for a thread, newest first.
func (s *AuditService) Feed(ctx context.Context, groupKey string, limit int) ([]domain.ReviewEvent, error) {
	return repo.ListEvents(ctx, s.DB, groupKey, limit)
}
