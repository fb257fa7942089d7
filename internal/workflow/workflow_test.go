package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

type fakeQueueRepo struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[string]*models.QueueEntry)}
}

func (f *fakeQueueRepo) Insert(_ context.Context, entry *models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *entry
	f.entries[entry.ID] = &copied
	return nil
}

func (f *fakeQueueRepo) FindByID(_ context.Context, id string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeQueueRepo) List(_ context.Context, status models.QueueStatus) ([]models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range f.entries {
		if status == "" || e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeQueueRepo) UpdateStatus(_ context.Context, id string, from, to models.QueueStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
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

type fakeCounter struct {
	mu   sync.Mutex
	seqs map[string]int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{seqs: make(map[string]int)}
}

func (f *fakeCounter) NextSequence(_ context.Context, scope string, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scope + ":" + day.Format("2006-01-02")
	f.seqs[key]++
	return f.seqs[key], nil
}

func newTestService() (*Service, *fakeQueueRepo) {
	repo := newFakeQueueRepo()
	return NewService(repo, newFakeCounter(), nil), repo
}

func validInput() CreateInput {
	return CreateInput{
		TruckID:        "truck-01",
		SupplierName:   "Jaya Makmur",
		Classification: models.ClassPlasma,
	}
}

func TestCreateEntryAssignsSequentialQueueNumbers(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.CreateEntry(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateEntry returned error: %v", err)
	}
	second, err := svc.CreateEntry(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateEntry returned error: %v", err)
	}

	if !strings.HasPrefix(first.QueueNumber, "0001/JM/") {
		t.Errorf("first queue number = %q, want 0001/JM/yy", first.QueueNumber)
	}
	if !strings.HasPrefix(second.QueueNumber, "0002/JM/") {
		t.Errorf("second queue number = %q, want 0002/JM/yy", second.QueueNumber)
	}
	if first.Status != models.QueueWaiting {
		t.Errorf("new entry status = %s, want waiting", first.Status)
	}
}

func TestCreateEntryConcurrentNumbersAreUnique(t *testing.T) {
	svc, _ := newTestService()

	const n = 20
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.CreateEntry(context.Background(), validInput())
			if err != nil {
				t.Errorf("CreateEntry: %v", err)
				return
			}
			numbers <- entry.QueueNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, n)
	for num := range numbers {
		if seen[num] {
			t.Fatalf("queue number %q assigned twice", num)
		}
		seen[num] = true
	}
}

func TestCreateEntryValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing truck", CreateInput{SupplierName: "Jaya Makmur", Classification: models.ClassUmum}},
		{"missing supplier name", CreateInput{TruckID: "t", Classification: models.ClassUmum}},
		{"bad classification", CreateInput{TruckID: "t", SupplierName: "Jaya Makmur", Classification: "vip"}},
	}

	for _, tt := range tests {
		if _, err := svc.CreateEntry(context.Background(), tt.input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tt.name, err)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to models.QueueStatus
		ok       bool
	}{
		{models.QueueWaiting, models.QueueProcessing, true},
		{models.QueueWaiting, models.QueueCancelled, true},
		{models.QueueWaiting, models.QueueCompleted, false},
		{models.QueueProcessing, models.QueueCompleted, true},
		{models.QueueProcessing, models.QueueCancelled, true},
		{models.QueueProcessing, models.QueueWaiting, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			svc, repo := newTestService()
			entry, err := svc.CreateEntry(context.Background(), validInput())
			if err != nil {
				t.Fatalf("CreateEntry: %v", err)
			}
			repo.entries[entry.ID].Status = tt.from

			err = svc.Transition(context.Background(), entry.ID, tt.to)
			if tt.ok && err != nil {
				t.Errorf("Transition returned error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Transition err = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestTransitionFromTerminalStateRejected(t *testing.T) {
	for _, terminal := range []models.QueueStatus{models.QueueCompleted, models.QueueCancelled} {
		svc, repo := newTestService()
		entry, err := svc.CreateEntry(context.Background(), validInput())
		if err != nil {
			t.Fatalf("CreateEntry: %v", err)
		}
		repo.entries[entry.ID].Status = terminal

		if err := svc.Transition(context.Background(), entry.ID, models.QueueProcessing); !errors.Is(err, ErrTerminalState) {
			t.Errorf("from %s: err = %v, want ErrTerminalState", terminal, err)
		}
	}
}

func TestTransitionUnknownTargetRejected(t *testing.T) {
	svc, _ := newTestService()
	entry, err := svc.CreateEntry(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := svc.Transition(context.Background(), entry.ID, "parked"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("err = %v, want ErrUnknownStatus", err)
	}
}

type conflictQueueRepo struct {
	*fakeQueueRepo
}

func (c *conflictQueueRepo) UpdateStatus(context.Context, string, models.QueueStatus, models.QueueStatus, time.Time) error {
	return models.ErrStatusConflict
}

func TestTransitionConcurrentConflictSurfaces(t *testing.T) {
	repo := &conflictQueueRepo{fakeQueueRepo: newFakeQueueRepo()}
	svc := NewService(repo, newFakeCounter(), nil)

	entry, err := svc.CreateEntry(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// Another station wins the conditional update between the status
	// check and the write.
	err = svc.Transition(context.Background(), entry.ID, models.QueueProcessing)
	if !errors.Is(err, models.ErrStatusConflict) {
		t.Errorf("err = %v, want ErrStatusConflict", err)
	}
}
