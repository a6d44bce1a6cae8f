package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/internal/logging"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job is an asynchronous normalization. The request text is not echoed back
// in job listings; it is available in Result.Input once the job completes.
type Job struct {
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Progress    int                `json:"progress"` // 0-100
	InputBytes  int                `json:"input_bytes"`
	Result      *NormalizeResponse `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	CompletedAt string             `json:"completed_at,omitempty"`

	req    NormalizeRequest
	ctx    context.Context
	cancel context.CancelFunc
}

// JobStore manages jobs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	base context.Context
}

// NewJobStore creates a store whose job contexts derive from base.
func NewJobStore(base context.Context) *JobStore {
	return &JobStore{jobs: make(map[string]*Job), base: base}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Create registers a pending job for req.
func (s *JobStore) Create(req NormalizeRequest) *Job {
	ctx, cancel := context.WithCancel(s.base)
	ts := now()
	job := &Job{
		ID:         uuid.NewString(),
		Status:     JobStatusPending,
		InputBytes: len(req.Text),
		CreatedAt:  ts,
		UpdatedAt:  ts,
		req:        req,
		ctx:        ctx,
		cancel:     cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, perrors.NewNotFound("job", id)
	}
	return *job, nil
}

// List returns copies of all jobs.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

// Update moves a job forward. Terminal jobs are never changed again, so a
// late worker update cannot resurrect a cancelled job.
func (s *JobStore) Update(id string, status JobStatus, progress int, result *NormalizeResponse, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return perrors.NewNotFound("job", id)
	}
	if job.Status.terminal() {
		return perrors.NewState("update", "job", id, string(job.Status))
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = now()
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status.terminal() {
		job.CompletedAt = job.UpdatedAt
		job.cancel()
	}
	return nil
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return perrors.NewNotFound("job", id)
	}
	if job.Status.terminal() {
		return perrors.NewState("cancel", "job", id, string(job.Status))
	}

	job.cancel()
	job.Status = JobStatusCancelled
	job.UpdatedAt = now()
	job.CompletedAt = job.UpdatedAt
	job.Error = "cancelled by request"
	return nil
}

// Prune drops terminal jobs that finished before cutoff.
func (s *JobStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, job := range s.jobs {
		if !job.Status.terminal() {
			continue
		}
		done, err := time.Parse(time.RFC3339, job.CompletedAt)
		if err == nil && done.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// runJob executes one job on a pool worker.
func (srv *Server) runJob(_ context.Context, job *Job) *Job {
	if err := srv.jobs.Update(job.ID, JobStatusRunning, 10, nil, ""); err != nil {
		// Cancelled while queued.
		return job
	}
	srv.hub.BroadcastProgress(job.ID, "normalize", "running", 10)

	resp, err := srv.svc.Normalize(job.ctx, job.req, "api:job")
	switch {
	case job.ctx.Err() != nil:
		// No-op when Cancel already recorded the terminal state.
		srv.jobs.Update(job.ID, JobStatusCancelled, 100, nil, "cancelled")
	case err != nil:
		srv.jobs.Update(job.ID, JobStatusFailed, 100, nil, err.Error())
		srv.hub.BroadcastError(job.ID, err.Error())
	default:
		srv.jobs.Update(job.ID, JobStatusCompleted, 100, &resp, "")
		srv.hub.BroadcastComplete(job.ID, map[string]any{
			"result_sha256": resp.ResultSHA256,
			"changed_lines": resp.ChangedLines,
		})
	}
	return job
}

// drainJobs logs every finished job as the pool reports it.
func (srv *Server) drainJobs() {
	for job := range srv.pool.Results() {
		status := JobStatusFailed
		if j, err := srv.jobs.Get(job.ID); err == nil {
			status = j.Status
		}
		logging.JobEvent(job.ID, string(status))
	}
}
