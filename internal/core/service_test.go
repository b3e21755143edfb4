package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store used to drive the job pipeline in tests
// without a database.
type memStore struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*Job)}
}

func (m *memStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *memStore) CreateJob(ctx context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *job
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.jobs[cp.ID] = &cp
	m.order = append(m.order, cp.ID)
	return nil
}

func (m *memStore) ClaimNextQueued(ctx context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		j := m.jobs[id]
		if j.Status == StatusQueued {
			j.Status = StatusRunning
			j.UpdatedAt = time.Now()
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateProgress(ctx context.Context, jobID string, progress int, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok && j.Status == StatusRunning {
		j.Progress = progress
		j.Message = message
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memStore) MarkSucceeded(ctx context.Context, jobID, outputPath, outputName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok {
		j.Status = StatusSucceeded
		j.Progress = 100
		j.OutputPath = outputPath
		j.OutputName = outputName
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, jobID, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok {
		j.Status = StatusFailed
		j.Error = errMsg
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memStore) MarkCancelled(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok && !j.Status.Terminal() {
		j.Status = StatusCancelled
		j.Error = "job cancelled"
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memStore) CancelIfQueued(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok && j.Status == StatusQueued {
		j.Status = StatusCancelled
		j.Error = "job cancelled"
		j.UpdatedAt = time.Now()
		return true, nil
	}
	return false, nil
}

func (m *memStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	cp := *j
	return &cp, nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Job
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.jobs[m.order[i]])
	}
	return out, nil
}

func (m *memStore) CountActive(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, j := range m.jobs {
		if j.Status == StatusQueued || j.Status == StatusRunning {
			n++
		}
	}
	return n, nil
}

func (m *memStore) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var n int64
	for _, j := range m.jobs {
		if j.Status == StatusRunning && j.UpdatedAt.Before(cutoff) {
			j.Status = StatusQueued
			j.Progress = 0
			j.Message = ""
			j.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (m *memStore) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	var n int64
	for id, j := range m.jobs {
		if j.Status.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()

	svc, err := NewService(store, ServiceOptions{
		DataDir:      filepath.Join(t.TempDir(), "data"),
		ArtifactsDir: filepath.Join(t.TempDir(), "artifacts"),
		MaxUploads:   2,
		UploadWait:   time.Second,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func stageCSV(t *testing.T, svc *Service, name, content string) *StagedUpload {
	t.Helper()

	staged, err := svc.SaveUpload(context.Background(), name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("SaveUpload(%s) error = %v", name, err)
	}
	return staged
}

func startRunner(t *testing.T, svc *Service) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go NewRunner(svc, 1, 50*time.Millisecond).Start(ctx)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestService_SubmitAndRun(t *testing.T) {
	Clear()
	defer Clear()

	Register(OperationDefinition{
		Info: OperationInfo{Key: "echo", Group: "Test", Label: "Echo", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			env.Report("reading", 1, 2)
			out := filepath.Join(env.ArtifactsDir, env.JobID+".txt")
			if err := os.WriteFile(out, []byte(strings.Join(env.InputNames, ",")), 0o644); err != nil {
				return RunResult{}, err
			}
			env.Report("writing", 2, 2)
			return RunResult{OutputPath: out, OutputName: "echo.txt"}, nil
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	startRunner(t, svc)

	staged := stageCSV(t, svc, "input.csv", "a,b\n1,2\n")

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		Operation: "echo",
		Inputs:    []string{staged.ID},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	res, err := svc.Result(waitCtx(t), jobID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusSucceeded {
		t.Fatalf("Status = %s, want %s (error: %s)", res.Status, StatusSucceeded, res.Error)
	}
	if res.OutputName != "echo.txt" {
		t.Errorf("OutputName = %q, want echo.txt", res.OutputName)
	}

	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "input.csv" {
		t.Errorf("artifact = %q, want input names", data)
	}

	row, err := store.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if row.Status != StatusSucceeded || row.OutputName != "echo.txt" {
		t.Errorf("stored row = %s/%q, want succeeded/echo.txt", row.Status, row.OutputName)
	}

	path, name, err := svc.Artifact(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if name != "echo.txt" || path != res.OutputPath {
		t.Errorf("Artifact = %q/%q, want %q/echo.txt", path, name, res.OutputPath)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	Clear()
	defer Clear()

	Register(OperationDefinition{
		Info: OperationInfo{
			Key: "pair", Group: "Test", Label: "Pair",
			MinInputs: 2, MaxInputs: 2, Extensions: []string{".xlsx"},
		},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			return RunResult{}, nil
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	staged := stageCSV(t, svc, "one.csv", "a\n1\n")

	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr string
	}{
		{
			name:    "unknown operation",
			req:     SubmitRequest{Operation: "nope"},
			wantErr: "unknown operation",
		},
		{
			name:    "too few inputs",
			req:     SubmitRequest{Operation: "pair", Inputs: []string{staged.ID}},
			wantErr: "requires at least",
		},
		{
			name:    "too many inputs",
			req:     SubmitRequest{Operation: "pair", Inputs: []string{staged.ID, staged.ID, staged.ID}},
			wantErr: "accepts at most",
		},
		{
			name:    "missing upload",
			req:     SubmitRequest{Operation: "pair", Inputs: []string{staged.ID, "0c7a54c8-1111-2222-3333-444455556666"}},
			wantErr: "upload not found",
		},
		{
			name:    "wrong extension",
			req:     SubmitRequest{Operation: "pair", Inputs: []string{staged.ID, staged.ID}},
			wantErr: "does not accept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Submit() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Submit() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestService_QueueLimit(t *testing.T) {
	Clear()
	defer Clear()

	Register(OperationDefinition{
		Info: OperationInfo{Key: "noop", Group: "Test", Label: "Noop", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			return RunResult{}, nil
		},
	})

	store := newMemStore()
	svc, err := NewService(store, ServiceOptions{
		DataDir:      filepath.Join(t.TempDir(), "data"),
		ArtifactsDir: filepath.Join(t.TempDir(), "artifacts"),
		QueueLimit:   1,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	staged := stageCSV(t, svc, "one.csv", "a\n1\n")
	req := SubmitRequest{Operation: "noop", Inputs: []string{staged.ID}}

	// No runner is draining the queue, so the first job stays queued.
	if _, err := svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	_, err = svc.Submit(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "job queue is full") {
		t.Errorf("second Submit() error = %v, want queue full", err)
	}
}

func TestService_CancelQueued(t *testing.T) {
	Clear()
	defer Clear()

	Register(OperationDefinition{
		Info: OperationInfo{Key: "noop", Group: "Test", Label: "Noop", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			return RunResult{}, nil
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	staged := stageCSV(t, svc, "one.csv", "a\n1\n")

	// No runner: the job can only ever be cancelled from the queue.
	jobID, err := svc.Submit(context.Background(), SubmitRequest{Operation: "noop", Inputs: []string{staged.ID}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.Cancel(context.Background(), jobID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	res, err := svc.Result(waitCtx(t), jobID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("Status = %s, want %s", res.Status, StatusCancelled)
	}

	row, _ := store.GetJob(context.Background(), jobID)
	if row.Status != StatusCancelled {
		t.Errorf("stored status = %s, want %s", row.Status, StatusCancelled)
	}

	// Cancelling again is a no-op.
	if err := svc.Cancel(context.Background(), jobID); err != nil {
		t.Errorf("repeat Cancel() error = %v", err)
	}
}

func TestService_CancelRunning(t *testing.T) {
	Clear()
	defer Clear()

	started := make(chan struct{})
	Register(OperationDefinition{
		Info: OperationInfo{Key: "block", Group: "Test", Label: "Block", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			close(started)
			<-ctx.Done()
			return RunResult{}, ctx.Err()
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	startRunner(t, svc)

	staged := stageCSV(t, svc, "one.csv", "a\n1\n")
	jobID, err := svc.Submit(context.Background(), SubmitRequest{Operation: "block", Inputs: []string{staged.ID}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never started")
	}

	if err := svc.Cancel(context.Background(), jobID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	res, err := svc.Result(waitCtx(t), jobID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("Status = %s, want %s", res.Status, StatusCancelled)
	}

	row, _ := store.GetJob(context.Background(), jobID)
	if row.Status != StatusCancelled {
		t.Errorf("stored status = %s, want %s", row.Status, StatusCancelled)
	}
}

func TestService_ProgressSubscription(t *testing.T) {
	Clear()
	defer Clear()

	started := make(chan struct{})
	release := make(chan struct{})
	Register(OperationDefinition{
		Info: OperationInfo{Key: "steps", Group: "Test", Label: "Steps", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			close(started)
			<-release
			env.Report("reading", 1, 2)
			env.Report("writing", 2, 2)
			return RunResult{OutputName: "out"}, nil
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	startRunner(t, svc)

	staged := stageCSV(t, svc, "one.csv", "a\n1\n")
	jobID, err := svc.Submit(context.Background(), SubmitRequest{Operation: "steps", Inputs: []string{staged.ID}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never started")
	}

	ch, err := svc.SubscribeProgress(context.Background(), jobID)
	if err != nil {
		t.Fatalf("SubscribeProgress() error = %v", err)
	}
	close(release)

	var updates []JobProgress
	timeout := time.After(5 * time.Second)
collect:
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				break collect
			}
			updates = append(updates, p)
		case <-timeout:
			t.Fatal("progress channel never closed")
		}
	}

	if len(updates) == 0 {
		t.Fatal("no progress updates received")
	}

	last := updates[len(updates)-1]
	if last.Status != StatusSucceeded {
		t.Errorf("final status = %s, want %s", last.Status, StatusSucceeded)
	}
	if last.Percent() != 100 {
		t.Errorf("final percent = %v, want 100", last.Percent())
	}

	sawStep := false
	for _, p := range updates {
		if p.Step == "reading" || p.Step == "writing" {
			sawStep = true
		}
	}
	if !sawStep {
		t.Errorf("no step updates observed: %+v", updates)
	}
}

func TestService_RunnerRecoversPanic(t *testing.T) {
	Clear()
	defer Clear()

	Register(OperationDefinition{
		Info: OperationInfo{Key: "boom", Group: "Test", Label: "Boom", MinInputs: 1},
		Run: func(ctx context.Context, env RunEnv) (RunResult, error) {
			panic("kaboom")
		},
	})

	store := newMemStore()
	svc := newTestService(t, store)
	startRunner(t, svc)

	staged := stageCSV(t, svc, "one.csv", "a\n1\n")
	jobID, err := svc.Submit(context.Background(), SubmitRequest{Operation: "boom", Inputs: []string{staged.ID}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	res, err := svc.Result(waitCtx(t), jobID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %s, want %s", res.Status, StatusFailed)
	}
	if !strings.Contains(res.Error, "internal error") {
		t.Errorf("Error = %q, want internal error", res.Error)
	}

	row, _ := store.GetJob(context.Background(), jobID)
	if row.Status != StatusFailed {
		t.Errorf("stored status = %s, want %s", row.Status, StatusFailed)
	}
}

func TestService_UntrackedJobFallsBackToStore(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	// A terminal row from a previous process life.
	job := &Job{
		ID:         "f2a3b6ff-0000-1111-2222-333344445555",
		Operation:  "echo",
		Status:     StatusSucceeded,
		Progress:   100,
		OutputName: "old.xlsx",
	}
	if err := store.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	store.MarkSucceeded(context.Background(), job.ID, "", "old.xlsx")

	snap, err := svc.Snapshot(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Status != StatusSucceeded {
		t.Errorf("snapshot status = %s, want %s", snap.Status, StatusSucceeded)
	}

	ch, err := svc.SubscribeProgress(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("SubscribeProgress() error = %v", err)
	}
	p, ok := <-ch
	if !ok || p.Status != StatusSucceeded {
		t.Errorf("subscription snapshot = %+v ok=%v, want succeeded", p, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after the stored snapshot")
	}

	res, err := svc.Result(waitCtx(t), job.ID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Status != StatusSucceeded || res.OutputName != "old.xlsx" {
		t.Errorf("Result = %s/%q, want succeeded/old.xlsx", res.Status, res.OutputName)
	}

	if err := svc.Cancel(context.Background(), job.ID); err != nil {
		t.Errorf("Cancel() of finished job error = %v", err)
	}

	if _, err := svc.Snapshot(context.Background(), "no-such-job"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Snapshot(missing) error = %v, want ErrJobNotFound", err)
	}
}

func TestService_SaveUploadValidation(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.SaveUpload(ctx, "report.pdf", strings.NewReader("x")); err == nil ||
		!strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("pdf upload error = %v, want unsupported file type", err)
	}

	if _, err := svc.SaveUpload(ctx, "blank.csv", strings.NewReader("")); err == nil ||
		!strings.Contains(err.Error(), "empty file") {
		t.Errorf("empty upload error = %v, want empty file", err)
	}

	// Garbage bytes with a workbook extension fail integrity checking and
	// leave nothing staged.
	bad, err := svc.SaveUpload(ctx, "fake.xlsx", strings.NewReader("not a workbook"))
	if err == nil {
		t.Fatalf("garbage xlsx staged as %+v, want error", bad)
	}

	staged, err := svc.SaveUpload(ctx, "good.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("SaveUpload(good.csv) error = %v", err)
	}
	if staged.Size == 0 || staged.Name != "good.csv" {
		t.Errorf("staged = %+v, want size>0 and original name", staged)
	}

	path, name, err := svc.ResolveUpload(staged.ID)
	if err != nil {
		t.Fatalf("ResolveUpload() error = %v", err)
	}
	if name != "good.csv" {
		t.Errorf("resolved name = %q, want good.csv", name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("staged file missing: %v", err)
	}
}

func TestService_ResolveUploadRejectsNonUUID(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	for _, id := range []string{"", "..", "../../etc/passwd", "*", "abc"} {
		if _, _, err := svc.ResolveUpload(id); err == nil ||
			!strings.Contains(err.Error(), "upload not found") {
			t.Errorf("ResolveUpload(%q) error = %v, want upload not found", id, err)
		}
	}
}

func TestService_SweepFiles(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	oldFile := filepath.Join(svc.artifactsDir, "stale.xlsx")
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	freshFile := filepath.Join(svc.dataDir, "fresh.csv")
	if err := os.WriteFile(freshFile, []byte("y"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	removed, err := svc.sweepFiles(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("sweepFiles() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("stale file should be gone")
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Error("fresh file should survive")
	}
}

func TestService_InspectFiles(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	a := stageCSV(t, svc, "jan.csv", "id,amount\n1,10\n")
	b := stageCSV(t, svc, "feb.csv", "id,amount\n2,20\n")
	c := stageCSV(t, svc, "other.csv", "sku,qty\nx,3\n")

	report, err := svc.InspectFiles(ctx, InspectRequest{Inputs: []string{a.ID, b.ID}})
	if err != nil {
		t.Fatalf("InspectFiles() error = %v", err)
	}
	if !report.Compatible {
		t.Errorf("compatible tables reported incompatible: %s", report.Summary())
	}

	report, err = svc.InspectFiles(ctx, InspectRequest{Inputs: []string{a.ID, c.ID}, Mode: "loose"})
	if err != nil {
		t.Fatalf("InspectFiles() error = %v", err)
	}
	if report.Compatible {
		t.Error("mismatched tables reported compatible")
	}
	if len(report.Findings) != 1 {
		t.Errorf("findings = %d, want 1", len(report.Findings))
	}

	if _, err := svc.InspectFiles(ctx, InspectRequest{Inputs: []string{a.ID}, Mode: "fuzzy"}); err == nil ||
		!strings.Contains(err.Error(), "invalid parameters") {
		t.Errorf("bad mode error = %v, want invalid parameters", err)
	}

	if _, err := svc.InspectFiles(ctx, InspectRequest{}); err == nil ||
		!strings.Contains(err.Error(), "requires at least") {
		t.Errorf("no inputs error = %v, want requires at least", err)
	}
}

func TestMemStore_RequeueStale(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	job := &Job{ID: "a1b2c3d4-0000-1111-2222-333344445555", Operation: "echo", Status: StatusQueued}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if _, err := store.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued() error = %v", err)
	}

	// Recent running jobs are left alone.
	n, err := store.RequeueStale(ctx, time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("RequeueStale(1h) = %d, %v; want 0", n, err)
	}

	n, err = store.RequeueStale(ctx, 0)
	if err != nil || n != 1 {
		t.Fatalf("RequeueStale(0) = %d, %v; want 1", n, err)
	}

	row, _ := store.GetJob(ctx, job.ID)
	if row.Status != StatusQueued {
		t.Errorf("status = %s, want %s after requeue", row.Status, StatusQueued)
	}
}
