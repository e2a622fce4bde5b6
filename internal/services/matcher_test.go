package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonathanduvan/gov-reach/internal/config"
	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

func seedOfficial(t *testing.T, m *Matcher, o domain.Official) *domain.Official {
	t.Helper()
	if err := repo.CreateOfficial(context.Background(), m.DB, &o); err != nil {
		t.Fatalf("seed official: %v", err)
	}
	return &o
}

func TestMatch_EmailShortCircuit(t *testing.T) {
	db := newServiceDB(t)
	m := NewMatcher(db, testMatchCfg())
	hit := seedOfficial(t, m, domain.Official{
		FullName: "Janet Dowd", // deliberately dissimilar name
		Role:     "Clerk",
		Email:    strPtr("jane@austin.gov"),
		State:    "TX", Category: "clerk", Level: domain.LevelMunicipal, City: "Austin",
	})

	p := proposedMayor()
	p.Email = "Jane@Austin.GOV" // case-insensitive

	info, err := m.Match(context.Background(), p)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if info.Method != MatchMethodEmail || info.Score != 1.0 || info.OfficialID != hit.ID {
		t.Fatalf("expected email short-circuit, got %+v", info)
	}
}

func TestMatch_EmptyDirectory(t *testing.T) {
	db := newServiceDB(t)
	m := NewMatcher(db, testMatchCfg())

	info, err := m.Match(context.Background(), proposedMayor())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if info.Method != MatchMethodNone || info.Score != 0 || info.OfficialID != "" {
		t.Fatalf("expected none against empty directory, got %+v", info)
	}
}

func TestMatch_FuzzyConfident(t *testing.T) {
	db := newServiceDB(t)
	m := NewMatcher(db, testMatchCfg())
	want := seedOfficial(t, m, domain.Official{
		FullName: "Jane Doe", Role: "Mayor",
		State: "TX", Category: "mayor", Level: domain.LevelMunicipal, City: "Austin",
	})

	// Identical name and role score 1.0, comfortably past the hard threshold.
	info, err := m.Match(context.Background(), proposedMayor())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if info.Method != MatchMethodFuzzy || info.OfficialID != want.ID {
		t.Fatalf("expected fuzzy match, got %+v", info)
	}
	if info.Score < 0.999 {
		t.Fatalf("identical name+role should score 1.0, got %v", info.Score)
	}
}

func TestMatch_ThresholdBoundaries(t *testing.T) {
	// Identical name, disjoint role: score is exactly the name weight (0.7).
	seed := domain.Official{
		FullName: "Jane Doe", Role: "Treasurer",
		State: "TX", Category: "treasurer", Level: domain.LevelMunicipal, City: "Austin",
	}
	p := proposedMayor() // role "Mayor", same name/scope
	const score = 0.7

	cases := []struct {
		name   string
		cfg    config.MatchConfig
		method string
		amb    bool
	}{
		{"at hard threshold converts", config.MatchConfig{HardThreshold: score, SoftThreshold: 0.5, MaxCandidates: 5}, MatchMethodFuzzy, false},
		{"just under hard, at soft flags conflict", config.MatchConfig{HardThreshold: score + 0.0001, SoftThreshold: score, MaxCandidates: 5}, MatchMethodNone, true},
		{"under soft is a clean miss", config.MatchConfig{HardThreshold: 0.9, SoftThreshold: score + 0.0001, MaxCandidates: 5}, MatchMethodNone, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newServiceDB(t)
			m := NewMatcher(db, tc.cfg)
			seedOfficial(t, m, seed)

			info, err := m.Match(context.Background(), p)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if info.Method != tc.method {
				t.Fatalf("method = %q; want %q (info %+v)", info.Method, tc.method, info)
			}
			if got := m.Ambiguous(info); got != tc.amb {
				t.Fatalf("Ambiguous = %v; want %v (score %v)", got, tc.amb, info.Score)
			}
		})
	}
}

func TestMatch_ScopeRestriction(t *testing.T) {
	db := newServiceDB(t)
	m := NewMatcher(db, testMatchCfg())
	// Same person, wrong city: out of scope, never scored.
	seedOfficial(t, m, domain.Official{
		FullName: "Jane Doe", Role: "Mayor",
		State: "TX", Category: "mayor", Level: domain.LevelMunicipal, City: "Dallas",
	})

	info, err := m.Match(context.Background(), proposedMayor())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if info.Method != MatchMethodNone || len(info.Candidates) != 0 {
		t.Fatalf("out-of-scope candidate leaked in: %+v", info)
	}
}

func TestMatch_CandidateCapAndOrder(t *testing.T) {
	db := newServiceDB(t)
	cfg := testMatchCfg()
	cfg.MaxCandidates = 2
	m := NewMatcher(db, cfg)

	seedOfficial(t, m, domain.Official{FullName: "Jane Doe", Role: "Mayor", State: "TX", Category: "mayor", Level: domain.LevelMunicipal, City: "Austin"})
	seedOfficial(t, m, domain.Official{FullName: "Jane Smith", Role: "Mayor", State: "TX", Category: "mayor", Level: domain.LevelMunicipal, City: "Austin"})
	for i := 0; i < 3; i++ {
		seedOfficial(t, m, domain.Official{FullName: fmt.Sprintf("Someone Else %d", i), Role: "Clerk", State: "TX", Category: "clerk", Level: domain.LevelMunicipal, City: "Austin"})
	}

	info, err := m.Match(context.Background(), proposedMayor())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(info.Candidates) != 2 {
		t.Fatalf("expected candidate list capped at 2, got %d", len(info.Candidates))
	}
	if info.Candidates[0].FullName != "Jane Doe" {
		t.Fatalf("best candidate should sort first: %+v", info.Candidates)
	}
	if info.Candidates[0].Score < info.Candidates[1].Score {
		t.Fatalf("candidates out of order: %+v", info.Candidates)
	}
}
