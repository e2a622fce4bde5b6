// Package domain defines the persistence models for the official directory
// and its moderation pipeline: canonical officials, crowd-sourced submissions
// grouped into review threads, thread locks, audit events, issue tags, and
// background ingest jobs. These types are mapped with GORM and form the core
// data layer of the application.
package domain

import (
	"time"
)

// Jurisdiction levels accepted by the pipeline (closed enum).
const (
	LevelFederal   = "federal"
	LevelState     = "state"
	LevelMunicipal = "municipal"
	LevelRegional  = "regional"
	LevelTribal    = "tribal"
)

// ValidLevel reports whether lvl is one of the closed jurisdiction levels.
func ValidLevel(lvl string) bool {
	switch lvl {
	case LevelFederal, LevelState, LevelMunicipal, LevelRegional, LevelTribal:
		return true
	}
	return false
}

// Submission statuses.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusConflict   = "conflict"
	StatusDuplicate  = "duplicate"
	StatusSuperseded = "superseded"
)

// Submission kinds.
const (
	KindCreate = "create"
	KindEdit   = "edit"
)

// Actor roles, in decreasing privilege order.
const (
	RoleAdmin       = "admin"
	RolePartner     = "partner"
	RoleContributor = "contributor"
	RoleUser        = "user"
)

// ReviewEvent action kinds.
const (
	ActionClaim    = "claim"
	ActionRelease  = "release"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionConflict = "conflict"
	ActionMerge    = "merge"
)

// Identity is the authenticated principal acting on the pipeline. It is
// supplied by the identity layer upstream and never re-derived here.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Phone is a single contact number attached to an official.
//
// Fields:
//   - Number: dialable form, e.g. "+15125551234".
//   - Label: free-text label ("office", "district office", ...).
//   - Rank: priority order within the official's list (0 = primary).
//   - Verified: set by reviewers once the number has been confirmed.
type Phone struct {
	Number   string `json:"number"`
	Label    string `json:"label,omitempty"`
	Rank     int    `json:"rank"`
	Verified bool   `json:"verified"`
}

// Official is the published, canonical directory entry for a public official.
// Officials are created and updated only through the merge engine; end users
// never edit them directly.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique when present; the strongest identity signal for matching.
//   - State: two-letter state code, uppercased.
//   - Category: office category from the closed taxonomy (see normalize).
//   - Level: jurisdiction level (federal/state/municipal/regional/tribal).
//   - City/County/District: jurisdiction detail.
//   - Phones/Issues/Partners: JSON-serialized collections.
//   - Verified: reviewer-confirmed flag. Confidence: match/merge confidence.
type Official struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	FullName   string    `json:"fullName"   gorm:"type:varchar(255);not null;index"`
	Role       string    `json:"role"       gorm:"type:varchar(255);not null"`
	Email      *string   `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex:ux_officials_email"`
	State      string    `json:"state"      gorm:"type:char(2);not null;index:idx_officials_region,priority:1"`
	Category   string    `json:"category"   gorm:"type:varchar(64);not null"`
	Level      string    `json:"level"      gorm:"type:varchar(16);not null;index:idx_officials_region,priority:2;check:level IN ('federal','state','municipal','regional','tribal')"`
	City       string    `json:"city,omitempty"     gorm:"type:varchar(128);index:idx_officials_region,priority:3"`
	County     string    `json:"county,omitempty"   gorm:"type:varchar(128)"`
	District   string    `json:"district,omitempty" gorm:"type:varchar(64)"`
	Phones     []Phone   `json:"phoneNumbers" gorm:"serializer:json"`
	Issues     []string  `json:"issues"       gorm:"serializer:json"`
	Partners   []string  `json:"partners"     gorm:"serializer:json"`
	Verified   bool      `json:"verified"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Official.
func (Official) TableName() string { return "officials" }

// Proposed is the typed patch submitted for review: an official-shaped object
// where the zero value of a scalar field and a nil slice mean "not provided".
// Only these fields ever survive a merge; unknown payload keys are dropped at
// ingest time.
type Proposed struct {
	FullName   string     `json:"fullName,omitempty"`
	Role       string     `json:"role,omitempty"`
	Email      string     `json:"email,omitempty"`
	State      string     `json:"state,omitempty"`
	Category   string     `json:"category,omitempty"`
	Level      string     `json:"level,omitempty"`
	City       string     `json:"city,omitempty"`
	County     string     `json:"county,omitempty"`
	District   string     `json:"district,omitempty"`
	Phones     PhoneList  `json:"phoneNumbers,omitempty"`
	Committees StringList `json:"committees,omitempty"`
	Issues     StringList `json:"issues,omitempty"`
	Partners   StringList `json:"partners,omitempty"`
	Verified   *bool      `json:"verified,omitempty"`
}

// MatchCandidate is one scored directory candidate recorded on a submission.
type MatchCandidate struct {
	OfficialID string  `json:"officialId"`
	FullName   string  `json:"fullName"`
	Role       string  `json:"role"`
	Score      float64 `json:"score"`
}

// MatchInfo is the dedupe block stamped on a submission by the matcher.
//
// Method is "email" (exact identifier hit), "fuzzy" (confident similarity
// match) or "none". Candidates holds the top scored alternatives so the
// reviewer can see what the matcher saw.
type MatchInfo struct {
	Method     string           `json:"method"`
	Score      float64          `json:"score"`
	OfficialID string           `json:"officialId,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
	Reason     string           `json:"reason,omitempty"`
}

// Variant is a lightweight snapshot of a child submission's proposed data,
// stored on the thread leader for fast list-view previews.
type Variant struct {
	SubmissionID string    `json:"submissionId"`
	Submitter    string    `json:"submitter"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Submission is a proposed change or new-official record awaiting review.
// Submissions sharing a GroupKey form a review thread with exactly one
// leader (LeaderID == nil); all others reference the leader. Submissions are
// never deleted, only status-transitioned.
type Submission struct {
	ID               string     `json:"id"   gorm:"type:char(36);primaryKey"`
	Kind             string     `json:"kind" gorm:"type:varchar(8);not null;check:kind IN ('create','edit')"`
	TargetOfficialID *string    `json:"targetOfficialId,omitempty" gorm:"type:char(36);index"`
	Proposed         Proposed   `json:"proposed" gorm:"serializer:json"`
	SubmitterEmail   string     `json:"submitterEmail" gorm:"type:varchar(255);not null;index"`
	SubmitterRole    string     `json:"submitterRole"  gorm:"type:varchar(16);not null"`
	Status           string     `json:"status" gorm:"type:varchar(16);not null;index;check:status IN ('pending','approved','rejected','conflict','duplicate','superseded')"`
	Dedupe           MatchInfo  `json:"dedupe" gorm:"serializer:json"`
	GroupKey         string     `json:"groupKey" gorm:"type:varchar(512);not null;index:idx_submissions_group"`
	LeaderID         *string    `json:"leaderId,omitempty" gorm:"type:char(36);index"`
	RelatedCount     int        `json:"relatedCount"`
	Variants         []Variant  `json:"variants,omitempty" gorm:"serializer:json"`
	Votes            int        `json:"votes"`
	Resolution       string     `json:"resolution,omitempty" gorm:"type:varchar(255)"`
	VerifierEmail    *string    `json:"verifierEmail,omitempty" gorm:"type:varchar(255)"`
	VerifiedAt       *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// IsLeader reports whether s is its thread's leader.
func (s *Submission) IsLeader() bool { return s.LeaderID == nil }

// Open reports whether the submission still awaits a reviewer decision.
func (s *Submission) Open() bool {
	return s.Status == StatusPending || s.Status == StatusConflict
}

// ThreadLock is the ephemeral mutual-exclusion record for a review thread.
// At most one live (non-expired) lock exists per group key; expiry is
// computed at read time from AcquiredAt plus the configured TTL, never by an
// in-process timer, so locks stay correct across multiple service instances.
type ThreadLock struct {
	GroupKey    string    `json:"groupKey"    gorm:"type:varchar(512);primaryKey"`
	HolderEmail string    `json:"holderEmail" gorm:"type:varchar(255);not null"`
	HolderRole  string    `json:"holderRole"  gorm:"type:varchar(16);not null"`
	AcquiredAt  time.Time `json:"acquiredAt"  gorm:"not null"`
}

// TableName returns the database table name for ThreadLock.
func (ThreadLock) TableName() string { return "thread_locks" }

// ExpiresAt returns the instant the lock lapses under the given TTL.
func (l *ThreadLock) ExpiresAt(ttl time.Duration) time.Time {
	return l.AcquiredAt.Add(ttl)
}

// Expired reports whether the lock has lapsed at "now" under the given TTL.
func (l *ThreadLock) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(l.AcquiredAt) > ttl
}

// ReviewEvent is an append-only audit entry for reviewer actions on a
// thread. Events are immutable once written.
type ReviewEvent struct {
	ID           string         `json:"id" gorm:"type:char(36);primaryKey"`
	GroupKey     string         `json:"groupKey" gorm:"type:varchar(512);not null;index:idx_events_group,priority:1"`
	SubmissionID *string        `json:"submissionId,omitempty" gorm:"type:char(36);index"`
	ActorEmail   string         `json:"actorEmail" gorm:"type:varchar(255);not null"`
	ActorRole    string         `json:"actorRole"  gorm:"type:varchar(16);not null"`
	Action       string         `json:"action" gorm:"type:varchar(16);not null;check:action IN ('claim','release','approve','reject','conflict','merge')"`
	Summary      string         `json:"summary" gorm:"type:varchar(512)"`
	Payload      map[string]any `json:"payload,omitempty" gorm:"serializer:json"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index:idx_events_group,priority:2"`
}

// TableName returns the database table name for ReviewEvent.
func (ReviewEvent) TableName() string { return "review_events" }

// Issue is a canonical topic tag. New names seen during ingest create
// pending issues that stay unpublished until curated. Slug is the unique
// normalized key; merging two issues consolidates aliases onto the target
// and deletes the source.
type Issue struct {
	ID         string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug       string    `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex:ux_issues_slug"`
	Aliases    []string  `json:"aliases" gorm:"serializer:json"`
	Pending    bool      `json:"pending"`
	UsageCount int       `json:"usageCount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Issue.
func (Issue) TableName() string { return "issues" }

// Ingest job statuses.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// RowError is a per-row ingest failure, indexed 1-based so it lines up with
// what the submitter sees in their spreadsheet.
type RowError struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
}

// IngestJob is the durable record for an asynchronous bulk ingest. The
// triggering request enqueues the job and returns its ID; a background
// worker drains queued jobs in fixed-size batches, bumping the progress
// counters after each batch so a polling client observes them only ever
// increasing.
type IngestJob struct {
	ID             string           `json:"id" gorm:"type:char(36);primaryKey"`
	Status         string           `json:"status" gorm:"type:varchar(16);not null;index;check:status IN ('queued','running','succeeded','failed')"`
	SubmitterEmail string           `json:"submitterEmail" gorm:"type:varchar(255);not null"`
	SubmitterRole  string           `json:"submitterRole"  gorm:"type:varchar(16);not null"`
	Rows           []map[string]any `json:"-" gorm:"serializer:json"`
	Total          int              `json:"total"`
	Processed      int              `json:"processed"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	LastError      string           `json:"lastError,omitempty" gorm:"type:varchar(512)"`
	RowErrors      []RowError       `json:"rowErrors,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName returns the database table name for IngestJob.
func (IngestJob) TableName() string { return "ingest_jobs" }
