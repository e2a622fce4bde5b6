package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jonathanduvan/gov-reach/internal/config"
	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/jobs"
	"github.com/jonathanduvan/gov-reach/internal/repo"
	"github.com/jonathanduvan/gov-reach/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestAPI wires the handler set over a temp database and mounts the
// submission/thread/job routes without the middleware stack.
func newTestAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	audit := &services.AuditService{DB: db}
	issues := &services.IssueService{DB: db}
	matchCfg := config.MatchConfig{HardThreshold: 0.88, SoftThreshold: 0.75, MaxCandidates: 5}
	ingest := &services.IngestService{DB: db, Matcher: services.NewMatcher(db, matchCfg), Issues: issues}
	locks := services.NewLockService(db, 30*time.Minute, audit)
	resolve := &services.ResolveService{DB: db, Locks: locks, Issues: issues, Audit: audit}
	worker := jobs.NewWorker(db, ingest, 25, time.Second)

	h := New(db, ingest, resolve, locks, issues, audit, worker)

	r := gin.New()
	r.POST("/submissions", h.Submit)
	r.POST("/submissions/bulk", h.SubmitBulk)
	r.POST("/submissions/resolve-bulk", h.ResolveBulk)
	r.POST("/submissions/:id/resolve", h.Resolve)
	r.POST("/submissions/:id/vote", h.Vote)
	r.GET("/threads", h.ListThreads)
	r.GET("/threads/:key", h.GetThread)
	r.GET("/threads/:key/lock", h.LockStatus)
	r.POST("/threads/:key/lock", h.ClaimLock)
	r.DELETE("/threads/:key/lock", h.ReleaseLock)
	r.GET("/jobs/:id", h.GetJob)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, email, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("X-User-Email", email)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func proposedBody() map[string]any {
	return map[string]any{
		"fullName": "Jane Doe",
		"role":     "Mayor",
		"state":    "TX",
		"category": "mayor",
		"level":    "municipal",
		"city":     "Austin",
	}
}

func TestSubmit_RequiresIdentity(t *testing.T) {
	r, _ := newTestAPI(t)
	w := doJSON(t, r, http.MethodPost, "/submissions", "", "", proposedBody())
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Code != ErrCodeUnauthorized {
		t.Fatalf("error code: %q", resp.Code)
	}
}

func TestSubmit_CreatedAndValidation(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions", "partner@example.org", "partner", proposedBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeBody[SubmitResponse](t, w)
	if resp.Submission == nil || resp.Submission.Status != domain.StatusPending {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Submission.SubmitterEmail != "partner@example.org" {
		t.Fatalf("submitter: %q", resp.Submission.SubmitterEmail)
	}

	// Missing required fields surface as a 400 with the validation code.
	w = doJSON(t, r, http.MethodPost, "/submissions", "partner@example.org", "partner", map[string]any{"fullName": "X"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
	errResp := decodeBody[ErrorResponse](t, w)
	if errResp.Code != ErrCodeValidation {
		t.Fatalf("error code: %q", errResp.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions", "partner@example.org", "partner", proposedBody())
	sub := decodeBody[SubmitResponse](t, w).Submission

	w = doJSON(t, r, http.MethodPost, "/submissions/"+sub.ID+"/resolve", "mod@example.org", "partner",
		map[string]any{"action": "approve", "verify": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d, body %s", w.Code, w.Body.String())
	}
	out := decodeBody[services.ResolveOutcome](t, w)
	if out.Official == nil || !out.Official.Verified {
		t.Fatalf("outcome: %+v", out)
	}

	// Deciding twice is a 422.
	w = doJSON(t, r, http.MethodPost, "/submissions/"+sub.ID+"/resolve", "mod@example.org", "partner",
		map[string]any{"action": "reject"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second decision: %d", w.Code)
	}

	// Unknown submission is a 404.
	w = doJSON(t, r, http.MethodPost, "/submissions/missing/resolve", "mod@example.org", "partner",
		map[string]any{"action": "reject"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}
}

func TestLockEndpoints(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions", "partner@example.org", "partner", proposedBody())
	sub := decodeBody[SubmitResponse](t, w).Submission
	key := url.PathEscape(sub.GroupKey)

	w = doJSON(t, r, http.MethodPost, "/threads/"+key+"/lock", "holder@example.org", "partner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim: %d, body %s", w.Code, w.Body.String())
	}

	// Second claimant gets a 409 naming the holder.
	w = doJSON(t, r, http.MethodPost, "/threads/"+key+"/lock", "other@example.org", "partner", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("contested claim: %d", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Holder != "holder@example.org" {
		t.Fatalf("holder: %q", resp.Holder)
	}

	// The lock blocks a foreign resolve too.
	w = doJSON(t, r, http.MethodPost, "/submissions/"+sub.ID+"/resolve", "other@example.org", "partner",
		map[string]any{"action": "reject"})
	if w.Code != http.StatusConflict {
		t.Fatalf("locked resolve: %d", w.Code)
	}

	// Non-holder release is forbidden; holder release succeeds.
	w = doJSON(t, r, http.MethodDelete, "/threads/"+key+"/lock", "other@example.org", "partner", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign release: %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/threads/"+key+"/lock", "holder@example.org", "partner", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("release: %d, body %s", w.Code, w.Body.String())
	}

	status := doJSON(t, r, http.MethodGet, "/threads/"+key+"/lock", "holder@example.org", "partner", nil)
	lock := decodeBody[services.LockStatus](t, status)
	if lock.Locked {
		t.Fatalf("lock should be gone: %+v", lock)
	}
}

func TestThreadEndpoint_EncodedKey(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions", "partner@example.org", "partner", proposedBody())
	sub := decodeBody[SubmitResponse](t, w).Submission

	w = doJSON(t, r, http.MethodGet, "/threads/"+url.PathEscape(sub.GroupKey), "partner@example.org", "partner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("thread: %d, body %s", w.Code, w.Body.String())
	}
	detail := decodeBody[ThreadDetail](t, w)
	if detail.Leader == nil || detail.Leader.ID != sub.ID {
		t.Fatalf("detail: %+v", detail)
	}

	w = doJSON(t, r, http.MethodGet, "/threads/"+url.PathEscape("email:nobody@example.org"), "partner@example.org", "partner", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing thread: %d", w.Code)
	}
}

func TestBulkAndJobEndpoints(t *testing.T) {
	r, db := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions/bulk", "partner@example.org", "partner",
		map[string]any{"rows": []map[string]any{proposedBody()}})
	if w.Code != http.StatusAccepted {
		t.Fatalf("bulk: %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeBody[BulkResponse](t, w)
	if resp.JobID == "" || resp.Total != 1 {
		t.Fatalf("bulk response: %+v", resp)
	}

	job, err := repo.GetJob(context.Background(), db, resp.JobID)
	if err != nil || job.Status != domain.JobQueued {
		t.Fatalf("queued job: %+v, %v", job, err)
	}

	w = doJSON(t, r, http.MethodGet, "/jobs/"+resp.JobID, "", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("job poll: %d", w.Code)
	}
	st := decodeBody[JobStatus](t, w)
	if st.ID != resp.JobID || st.Status != domain.JobQueued {
		t.Fatalf("job status: %+v", st)
	}

	w = doJSON(t, r, http.MethodGet, "/jobs/missing", "", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing job: %d", w.Code)
	}

	// Empty uploads never enqueue.
	w = doJSON(t, r, http.MethodPost, "/submissions/bulk", "partner@example.org", "partner",
		map[string]any{"rows": []map[string]any{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty bulk: %d", w.Code)
	}
}

func TestIdentityRoleDefaulting(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/submissions", "Someone@Example.ORG", "wizard", proposedBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d", w.Code)
	}
	resp := decodeBody[SubmitResponse](t, w)
	if resp.Submission.SubmitterEmail != "someone@example.org" {
		t.Fatalf("email folding: %q", resp.Submission.SubmitterEmail)
	}
	if resp.Submission.SubmitterRole != domain.RoleUser {
		t.Fatalf("unknown role should default to user: %q", resp.Submission.SubmitterRole)
	}
}
