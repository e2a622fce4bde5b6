package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jonathanduvan/gov-reach/internal/config"
	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testMatchCfg mirrors the production defaults.
func testMatchCfg() config.MatchConfig {
	return config.MatchConfig{HardThreshold: 0.88, SoftThreshold: 0.75, MaxCandidates: 5}
}

func strPtr(s string) *string { return &s }

// proposedMayor is a minimal valid proposed record used across tests.
func proposedMayor() domain.Proposed {
	return domain.Proposed{
		FullName: "Jane Doe",
		Role:     "Mayor",
		State:    "TX",
		Category: "mayor",
		Level:    domain.LevelMunicipal,
		City:     "Austin",
	}
}

var moderator = domain.Identity{Email: "mod@example.org", Role: domain.RolePartner}
var admin = domain.Identity{Email: "root@example.org", Role: domain.RoleAdmin}
