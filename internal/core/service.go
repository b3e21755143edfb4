package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied by NewService when the corresponding option is zero.
const (
	DefaultJobTimeout    = 10 * time.Minute
	DefaultQueueLimit    = 32
	DefaultMaxResultRows = 1_000_000

	// resultRetention is how long a finished job stays in memory. After
	// that, snapshots and results come from the store.
	resultRetention = 10 * time.Minute
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	DataDir       string        // staged uploads
	ArtifactsDir  string        // job outputs
	JobTimeout    time.Duration // per-job wall clock budget, queue wait included
	QueueLimit    int           // max queued+running jobs before submissions are rejected
	MaxResultRows int           // join row ceiling handed to operations
	MaxUploads    int           // concurrent ingestion slots
	UploadWait    time.Duration // how long an upload waits for a slot
}

// Service provides the core business logic for workbook operations.
type Service struct {
	store   Store
	limiter *UploadLimiter

	dataDir       string
	artifactsDir  string
	jobTimeout    time.Duration
	queueLimit    int
	maxResultRows int

	// wake nudges an idle worker after a submission or requeue.
	wake chan struct{}

	mu   sync.RWMutex
	jobs map[string]*activeJob
}

// activeJob tracks a job owned by this process: its cancel handle, its
// progress fan-out, and eventually its result.
type activeJob struct {
	ID        string
	Operation string
	Cancel    context.CancelFunc
	RunCtx    context.Context
	Done      chan struct{}

	mu        sync.Mutex
	progress  JobProgress
	result    *JobResult
	listeners []chan JobProgress

	finishOnce sync.Once
}

// NewService creates a new Service instance over a job store.
func NewService(store Store, opts ServiceOptions) (*Service, error) {
	if opts.DataDir == "" || opts.ArtifactsDir == "" {
		return nil, fmt.Errorf("data and artifacts directories are required")
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}
	if opts.QueueLimit <= 0 {
		opts.QueueLimit = DefaultQueueLimit
	}
	if opts.MaxResultRows <= 0 {
		opts.MaxResultRows = DefaultMaxResultRows
	}

	for _, dir := range []string{opts.DataDir, opts.ArtifactsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &Service{
		store:         store,
		limiter:       NewUploadLimiter(opts.MaxUploads, opts.UploadWait),
		dataDir:       opts.DataDir,
		artifactsDir:  opts.ArtifactsDir,
		jobTimeout:    opts.JobTimeout,
		queueLimit:    opts.QueueLimit,
		maxResultRows: opts.MaxResultRows,
		wake:          make(chan struct{}, 1),
		jobs:          make(map[string]*activeJob),
	}, nil
}

// ListOperations returns information about all registered operations.
func (s *Service) ListOperations() []OperationInfo {
	defs := All()
	infos := make([]OperationInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListOperationsByGroup returns operations organized by group.
func (s *Service) ListOperationsByGroup() map[string][]OperationInfo {
	result := make(map[string][]OperationInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// SubmitRequest describes a job submission.
type SubmitRequest struct {
	Operation string          `json:"operation"`
	Inputs    []string        `json:"inputs"` // staged upload ids, in order
	Params    json.RawMessage `json:"params,omitempty"`
}

// Submit validates the request, persists a queued job, and wakes the
// runner. Returns the job ID immediately. Use SubscribeProgress to get
// updates and Result to wait for the outcome.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	def, ok := Get(req.Operation)
	if !ok {
		return "", fmt.Errorf("unknown operation: %s", req.Operation)
	}

	if len(req.Inputs) < def.Info.MinInputs {
		return "", fmt.Errorf("operation %q requires at least %d inputs, got %d",
			req.Operation, def.Info.MinInputs, len(req.Inputs))
	}
	if def.Info.MaxInputs > 0 && len(req.Inputs) > def.Info.MaxInputs {
		return "", fmt.Errorf("operation %q accepts at most %d inputs, got %d",
			req.Operation, def.Info.MaxInputs, len(req.Inputs))
	}

	// Resolve staged files now so a bad upload ID fails the submission,
	// not the job.
	for _, uploadID := range req.Inputs {
		path, _, err := s.ResolveUpload(uploadID)
		if err != nil {
			return "", err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !def.Accepts(ext) {
			return "", fmt.Errorf("operation %q does not accept %q files", req.Operation, ext)
		}
	}

	active, err := s.store.CountActive(ctx)
	if err != nil {
		return "", fmt.Errorf("check queue depth: %w", err)
	}
	if active >= s.queueLimit {
		return "", fmt.Errorf("job queue is full (%d jobs active)", active)
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		Operation: req.Operation,
		Status:    StatusQueued,
		Params:    req.Params,
		Inputs:    req.Inputs,
		ClientIP:  ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return "", err
	}

	// The job context outlives the request. Its budget covers queue wait
	// plus execution.
	runCtx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)

	aj := &activeJob{
		ID:        jobID,
		Operation: req.Operation,
		Cancel:    cancel,
		RunCtx:    runCtx,
		Done:      make(chan struct{}),
		progress: JobProgress{
			JobID:     jobID,
			Operation: req.Operation,
			Status:    StatusQueued,
		},
	}

	s.mu.Lock()
	s.jobs[jobID] = aj
	s.mu.Unlock()

	s.kick()

	return jobID, nil
}

// kick nudges an idle worker without blocking.
func (s *Service) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// adopt returns the in-memory record for a claimed row, creating one when
// the row was queued by an earlier process life.
func (s *Service) adopt(row *Job) *activeJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aj, ok := s.jobs[row.ID]; ok {
		return aj
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	aj := &activeJob{
		ID:        row.ID,
		Operation: row.Operation,
		Cancel:    cancel,
		RunCtx:    runCtx,
		Done:      make(chan struct{}),
		progress: JobProgress{
			JobID:     row.ID,
			Operation: row.Operation,
			Status:    StatusQueued,
		},
	}
	s.jobs[row.ID] = aj
	return aj
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the job completes. For jobs this process no
// longer tracks, the channel delivers one stored snapshot and closes.
func (s *Service) SubscribeProgress(ctx context.Context, jobID string) (<-chan JobProgress, error) {
	s.mu.RLock()
	aj, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		job, err := s.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		ch := make(chan JobProgress, 1)
		ch <- progressFromJob(job)
		close(ch)
		return ch, nil
	}

	ch := make(chan JobProgress, 10)

	aj.mu.Lock()
	aj.listeners = append(aj.listeners, ch)
	// Send current progress immediately
	select {
	case ch <- aj.progress:
	default:
	}
	finished := aj.result != nil
	aj.mu.Unlock()

	// The job may have finished between the map lookup and the listener
	// registration. Close the channel ourselves in that case.
	if finished {
		aj.removeListener(ch)
		close(ch)
	}

	return ch, nil
}

// Cancel stops a job. Queued jobs are discarded without ever running;
// running jobs see their context cancelled and finalize as cancelled.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	s.mu.RLock()
	aj, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if ok {
		flipped, err := s.store.CancelIfQueued(ctx, jobID)
		if err != nil {
			return err
		}
		aj.Cancel()
		if flipped {
			// Never claimed, so no worker will finalize it.
			s.finishJob(aj, JobResult{
				JobID:     jobID,
				Operation: aj.Operation,
				Status:    StatusCancelled,
				Error:     "job cancelled",
			})
		}
		return nil
	}

	flipped, err := s.store.CancelIfQueued(ctx, jobID)
	if err != nil {
		return err
	}
	if flipped {
		return nil
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil // cancelling a finished job is a no-op
	}
	return fmt.Errorf("job %s is running on another instance", jobID)
}

// Result returns the final outcome of a job, blocking until it completes
// or ctx is done. Jobs not tracked by this process are polled from the
// store.
func (s *Service) Result(ctx context.Context, jobID string) (*JobResult, error) {
	s.mu.RLock()
	aj, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if ok {
		select {
		case <-aj.Done:
			aj.mu.Lock()
			res := *aj.result
			aj.mu.Unlock()
			return &res, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := s.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return resultFromJob(job), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Snapshot returns the current progress without blocking.
func (s *Service) Snapshot(ctx context.Context, jobID string) (JobProgress, error) {
	s.mu.RLock()
	aj, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if ok {
		aj.mu.Lock()
		p := aj.progress
		aj.mu.Unlock()
		return p, nil
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return JobProgress{}, err
	}
	return progressFromJob(job), nil
}

// Recent returns the most recently created jobs, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Job, error) {
	return s.store.ListRecent(ctx, limit)
}

// Artifact resolves the output file of a succeeded job.
func (s *Service) Artifact(ctx context.Context, jobID string) (path, name string, err error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return "", "", err
	}
	if job.Status != StatusSucceeded {
		return "", "", fmt.Errorf("job %s has no artifact: status is %s", jobID, job.Status)
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		return "", "", fmt.Errorf("artifact for job %s no longer exists", jobID)
	}
	return job.OutputPath, job.OutputName, nil
}

// StatusReport is a snapshot of service load for monitoring.
type StatusReport struct {
	Uploads    LimiterStatus `json:"uploads"`
	ActiveJobs int           `json:"activeJobs"`
	QueueLimit int           `json:"queueLimit"`
}

// Status reports current upload and job load.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	active, err := s.store.CountActive(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{
		Uploads:    s.limiter.Status(),
		ActiveJobs: active,
		QueueLimit: s.queueLimit,
	}, nil
}

// DrainUploads blocks until in-flight uploads finish or ctx is done.
// Called during graceful shutdown.
func (s *Service) DrainUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// setStep records operation progress and fans it out to listeners.
func (aj *activeJob) setStep(status JobStatus, step string, done, total int) JobProgress {
	aj.mu.Lock()
	aj.progress.Status = status
	aj.progress.Step = step
	aj.progress.StepsDone = done
	aj.progress.StepsTotal = total
	p := aj.progress
	aj.mu.Unlock()

	aj.notify(p)
	return p
}

// notify sends a progress update to all listeners.
func (aj *activeJob) notify(p JobProgress) {
	aj.mu.Lock()
	defer aj.mu.Unlock()

	for _, ch := range aj.listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// removeListener detaches one subscriber channel.
func (aj *activeJob) removeListener(ch chan JobProgress) {
	aj.mu.Lock()
	defer aj.mu.Unlock()

	for i, c := range aj.listeners {
		if c == ch {
			aj.listeners = append(aj.listeners[:i], aj.listeners[i+1:]...)
			return
		}
	}
}

// finishJob records the final result, notifies and closes listeners, and
// schedules the in-memory record for removal. Only the first call for a
// job has any effect.
func (s *Service) finishJob(aj *activeJob, res JobResult) {
	aj.finishOnce.Do(func() {
		aj.Cancel() // release the job context's timer

		aj.mu.Lock()
		aj.progress.Status = res.Status
		aj.progress.Error = res.Error
		if res.Status == StatusSucceeded && aj.progress.StepsTotal == 0 {
			aj.progress.StepsDone = 1
			aj.progress.StepsTotal = 1
		}
		aj.result = &res
		p := aj.progress
		listeners := aj.listeners
		aj.listeners = nil
		aj.mu.Unlock()

		for _, ch := range listeners {
			select {
			case ch <- p:
			default:
			}
			close(ch)
		}

		close(aj.Done)
		s.cleanup(aj.ID, resultRetention)
	})
}

// cleanup removes the job from tracking after a delay.
func (s *Service) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
	})
}

// progressFromJob synthesizes a progress snapshot from a stored row.
func progressFromJob(job *Job) JobProgress {
	return JobProgress{
		JobID:      job.ID,
		Operation:  job.Operation,
		Status:     job.Status,
		Step:       job.Message,
		StepsDone:  job.Progress,
		StepsTotal: 100,
		Error:      job.Error,
	}
}

// resultFromJob synthesizes a final result from a stored row.
func resultFromJob(job *Job) *JobResult {
	return &JobResult{
		JobID:      job.ID,
		Operation:  job.Operation,
		Status:     job.Status,
		OutputName: job.OutputName,
		OutputPath: job.OutputPath,
		Error:      job.Error,
		DurationMs: job.UpdatedAt.Sub(job.CreatedAt).Milliseconds(),
	}
}
