package handlers

import (
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/jobs"
	"github.com/jonathanduvan/gov-reach/internal/services"
)

// Handlers bundles the service dependencies for all endpoints.
type Handlers struct {
	db      *gorm.DB
	ingest  *services.IngestService
	resolve *services.ResolveService
	locks   *services.LockService
	issues  *services.IssueService
	audit   *services.AuditService
	worker  *jobs.Worker
}

// New wires the handler set.
func New(db *gorm.DB, ingest *services.IngestService, resolve *services.ResolveService, locks *services.LockService, issues *services.IssueService, audit *services.AuditService, worker *jobs.Worker) *Handlers {
	return &Handlers{
		db:      db,
		ingest:  ingest,
		resolve: resolve,
		locks:   locks,
		issues:  issues,
		audit:   audit,
		worker:  worker,
	}
}
