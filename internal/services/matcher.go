// Official matcher.
//
// Given a proposed record, find the best-matching canonical official and
// classify the relationship. An exact email hit short-circuits everything
// with score 1.0. Otherwise candidates are restricted to the proposed
// geographic scope and scored as a weighted blend of name and role token-set
// similarity. The score thresholds that split confident match / conflict /
// new are policy, injected from configuration rather than hard-coded.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/config"
	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/normalize"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

// Match methods recorded on the dedupe block.
const (
	MatchMethodEmail = "email"
	MatchMethodFuzzy = "fuzzy"
	MatchMethodNone  = "none"
)

// Similarity blend weights: names identify people far more reliably than
// role titles do.
const (
	nameWeight = 0.7
	roleWeight = 0.3
)

// Matcher is a pure read-only query over the canonical directory. It never
// writes.
type Matcher struct {
	DB  *gorm.DB
	Cfg config.MatchConfig
}

// NewMatcher builds a matcher with the given policy.
func NewMatcher(db *gorm.DB, cfg config.MatchConfig) *Matcher {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 5
	}
	return &Matcher{DB: db, Cfg: cfg}
}

// Match classifies the proposed record against the directory.
//
// Results:
//   - method "email", score 1.0: exact email hit, regardless of any name
//     dissimilarity.
//   - method "fuzzy": top candidate scored at or above the hard threshold;
//     callers convert a create into an edit against OfficialID.
//   - method "none": no confident match. When Score still reaches the soft
//     threshold the caller flags the submission as a conflict for human
//     adjudication instead of auto-editing.
func (m *Matcher) Match(ctx context.Context, p domain.Proposed) (domain.MatchInfo, error) {
	if email := normalize.Email(p.Email); email != "" {
		hit, err := repo.GetOfficialByEmail(ctx, m.DB, email)
		if err == nil {
			return domain.MatchInfo{
				Method:     MatchMethodEmail,
				Score:      1.0,
				OfficialID: hit.ID,
				Reason:     fmt.Sprintf("exact email match on %s", email),
			}, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return domain.MatchInfo{}, err
		}
	}

	candidates, err := repo.ListOfficialsByRegion(ctx, m.DB, repo.RegionFilter{
		State:  p.State,
		Level:  p.Level,
		City:   p.City,
		County: p.County,
	})
	if err != nil {
		return domain.MatchInfo{}, err
	}
	if len(candidates) == 0 {
		return domain.MatchInfo{Method: MatchMethodNone, Reason: "no candidates in scope"}, nil
	}

	nameTokens := normalize.Tokens(p.FullName)
	roleTokens := normalize.Tokens(p.Role)

	scored := make([]domain.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := nameWeight*normalize.Jaccard(nameTokens, normalize.Tokens(c.FullName)) +
			roleWeight*normalize.Jaccard(roleTokens, normalize.Tokens(c.Role))
		scored = append(scored, domain.MatchCandidate{
			OfficialID: c.ID,
			FullName:   c.FullName,
			Role:       c.Role,
			Score:      score,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > m.Cfg.MaxCandidates {
		scored = scored[:m.Cfg.MaxCandidates]
	}

	top := scored[0]
	info := domain.MatchInfo{
		Method:     MatchMethodNone,
		Score:      top.Score,
		Candidates: scored,
	}
	switch {
	case top.Score >= m.Cfg.HardThreshold:
		info.Method = MatchMethodFuzzy
		info.OfficialID = top.OfficialID
		info.Reason = fmt.Sprintf("name/role similarity %.3f to %s", top.Score, top.FullName)
	case top.Score >= m.Cfg.SoftThreshold:
		info.Reason = fmt.Sprintf("ambiguous similarity %.3f to %s, needs review", top.Score, top.FullName)
	default:
		info.Reason = "no close match in scope"
	}
	return info, nil
}

// Ambiguous reports whether a match result falls in the conflict band:
// below the hard threshold but at or above the soft one.
func (m *Matcher) Ambiguous(info domain.MatchInfo) bool {
	return info.Method == MatchMethodNone && info.Score >= m.Cfg.SoftThreshold
}
