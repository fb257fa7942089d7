package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/workflow"
)

type memQueueRepo struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{entries: make(map[string]*models.QueueEntry)}
}

func (r *memQueueRepo) Insert(_ context.Context, entry *models.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *memQueueRepo) FindByID(_ context.Context, id string) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (r *memQueueRepo) List(_ context.Context, status models.QueueStatus) ([]models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.QueueEntry
	for _, entry := range r.entries {
		if status == "" || entry.Status == status {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (r *memQueueRepo) UpdateStatus(_ context.Context, id string, from, to models.QueueStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return models.ErrNotFound
	}
	if entry.Status != from {
		return models.ErrStatusConflict
	}
	entry.Status = to
	entry.UpdatedAt = at
	return nil
}

type memCounter struct {
	mu   sync.Mutex
	seqs map[string]int
}

func (c *memCounter) NextSequence(_ context.Context, scope string, day time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seqs == nil {
		c.seqs = make(map[string]int)
	}
	key := scope + ":" + day.Format("2006-01-02")
	c.seqs[key]++
	return c.seqs[key], nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memQueueRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemQueueRepo()
	svc := workflow.NewService(repo, &memCounter{}, nil)
	h := NewQueueHandler(svc, nil)

	r := gin.New()
	r.POST("/api/queue", h.Create)
	r.GET("/api/queue", h.List)
	r.GET("/api/queue/:id", h.Get)
	r.PATCH("/api/queue/:id/status", h.UpdateStatus)
	return r, repo
}

func TestCreateQueueEntry(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"truck_id":"B1234XY","supplier_id":"sup-1","supplier_name":"Jaya Makmur","classification":"plasma"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var entry models.QueueEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.QueueNumber == "" {
		t.Error("expected a queue number in the response")
	}
	if entry.Status != models.QueueWaiting {
		t.Errorf("status = %q, want %q", entry.Status, models.QueueWaiting)
	}
}

func TestCreateQueueEntryRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(`{"truck_id":"B1234XY"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateQueueEntryRejectsUnknownClassification(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"truck_id":"B1234XY","supplier_id":"sup-1","supplier_name":"Jaya Makmur","classification":"premium"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetQueueEntryNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/queue/missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUpdateStatusDrivesWorkflow(t *testing.T) {
	r, repo := newTestRouter(t)

	entry := &models.QueueEntry{ID: "q1", Status: models.QueueWaiting}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/queue/q1/status", strings.NewReader(`{"status":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusNoContent, w.Body.String())
	}

	stored, err := repo.FindByID(context.Background(), "q1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.QueueProcessing {
		t.Errorf("stored status = %q, want %q", stored.Status, models.QueueProcessing)
	}
}

func TestUpdateStatusRejectsIllegalJump(t *testing.T) {
	r, repo := newTestRouter(t)

	entry := &models.QueueEntry{ID: "q1", Status: models.QueueWaiting}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/queue/q1/status", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestListQueueFiltersByStatus(t *testing.T) {
	r, repo := newTestRouter(t)

	_ = repo.Insert(context.Background(), &models.QueueEntry{ID: "q1", Status: models.QueueWaiting})
	_ = repo.Insert(context.Background(), &models.QueueEntry{ID: "q2", Status: models.QueueCompleted})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/queue?status=waiting", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Entries []models.QueueEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].ID != "q1" {
		t.Errorf("entries = %+v, want only q1", resp.Entries)
	}
}
