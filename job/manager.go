// Package job tracks asynchronous workflow runs: each Submit call gets an
// id immediately and the caller polls Get for the terminal result.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Record is a single tracked job's current state.
type Record struct {
	ID        string
	WorkflowID string
	Status    Status
	Result    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Manager is the concurrency-safe job store the Async Dispatcher writes to
// and the discovery/status API reads from.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]Record
}

func NewManager() *Manager {
	return &Manager{jobs: make(map[string]Record)}
}

// Create allocates a new PENDING job for workflowID and returns its id.
func (m *Manager) Create(workflowID string) string {
	id := uuid.NewString()
	now := time.Now()
	m.mu.Lock()
	m.jobs[id] = Record{
		ID:         id,
		WorkflowID: workflowID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.mu.Unlock()
	return id
}

// Update transitions an existing job to status with the given result text.
// Unlike Get, an unknown job id here is an error: the caller is the
// dispatcher itself and a missing job at this point is a bug, not a normal
// "not found" case.
func (m *Manager) Update(jobID string, status Status, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.jobs[jobID]
	if !ok {
		return &NotFoundError{JobID: jobID}
	}
	rec.Status = status
	rec.Result = result
	rec.UpdatedAt = time.Now()
	m.jobs[jobID] = rec
	return nil
}

// Get returns the current state of jobID. An unknown id is reported as a
// synthetic FAILED record rather than an error, since the caller here is
// typically an end user polling a job id that may have expired or never
// existed — there is nothing actionable for them to do with a Go error.
func (m *Manager) Get(jobID string) Record {
	m.mu.RLock()
	rec, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return Record{
			ID:     jobID,
			Status: StatusFailed,
			Result: "Job ID not found or expired.",
		}
	}
	return rec
}

// NotFoundError is returned by Update when jobID was never created.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return "job " + e.JobID + " not found"
}
