package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pathstore"
)

func chunkerCfg() chunker.Config {
	return chunker.Config{ChunkSize: 1500, ChunkOverlap: 200, MinChunk: 1}
}

func testWorker(ps *pathstore.Client) *Worker {
	return NewWorker(sayYes(), ps, nil, WorkerConfig{Chunker: chunkerCfg()})
}

type recordingStore struct {
	mu     sync.Mutex
	keys   []string
	status int
}

func (s *recordingStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, strings.TrimPrefix(r.URL.Path, "/kv/"))
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestWorker_Analyze(t *testing.T) {
	out, err := testWorker(nil).Analyze(context.Background(), "bid.md", []byte(bidMarkdown), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Result.Sections) != 2 || len(out.Chunks) == 0 {
		t.Errorf("unexpected output: %d sections, %d chunks", len(out.Result.Sections), len(out.Chunks))
	}
	if out.Report.GrayZone.OracleCalls != 0 {
		t.Error("oracle should not be consulted when disabled")
	}

	out, err = testWorker(nil).Analyze(context.Background(), "bid.md", []byte(bidMarkdown), true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Report.GrayZone.OracleCalls != 1 {
		t.Errorf("expected one oracle call, got %d", out.Report.GrayZone.OracleCalls)
	}
}

func TestWorker_AnalyzeUnsupported(t *testing.T) {
	_, err := testWorker(nil).Analyze(context.Background(), "bid.xls", []byte("x"), false)
	if !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestWorker_ProcessPublishes(t *testing.T) {
	store := &recordingStore{}
	srv := httptest.NewServer(store)
	defer srv.Close()

	job := NewJob("bid.md", []byte(bidMarkdown), false)
	testWorker(pathstore.NewClient(srv.URL, "k")).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted || !snap.Progress.Published {
		t.Fatalf("unexpected job state %+v", snap)
	}
	if snap.Progress.Sections != 4 || snap.ContentHash == "" {
		t.Errorf("unexpected progress %+v", snap)
	}
	want := []string{pathstore.ResultKey(job.DocID), pathstore.MetaKey(job.DocID)}
	if strings.Join(store.keys, ",") != strings.Join(want, ",") {
		t.Errorf("expected writes %v, got %v", want, store.keys)
	}
	if res, _ := job.Result(); res == nil {
		t.Error("result not stored on job")
	}
}

func TestWorker_ProcessPublishFailure(t *testing.T) {
	srv := httptest.NewServer(&recordingStore{status: http.StatusBadRequest})
	defer srv.Close()

	job := NewJob("bid.md", []byte(bidMarkdown), false)
	testWorker(pathstore.NewClient(srv.URL, "k")).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial || snap.Progress.Published || len(snap.Progress.Errors) != 1 {
		t.Errorf("unexpected job state %+v", snap)
	}
	if res, _ := job.Result(); res == nil {
		t.Error("result should still be available when publishing fails")
	}
}

func TestWorker_ProcessParseFailure(t *testing.T) {
	job := NewJob("scan.docx", []byte("not a zip"), false)
	testWorker(nil).Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" || len(snap.Progress.Errors) != 1 {
		t.Errorf("unexpected job state %+v", snap)
	}
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	cfg := config.Config{MaxQueueSize: 1, WorkerCount: 1}
	o := NewOrchestrator(cfg, nil, nil, nil)

	first := NewJob("a.md", []byte("# a"), false)
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewJob("b.md", []byte("# b"), false)
	if err := o.Submit(second); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if o.GetJob(second.ID).Snapshot().Status != StatusFailed {
		t.Error("rejected job should be marked failed")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	cfg := config.Config{MaxQueueSize: 4, WorkerCount: 2, JobTTL: 0}
	o := NewOrchestrator(cfg, nil, nil, nil)
	o.Start(context.Background())

	job := NewJob("bid.md", []byte(bidMarkdown), true)
	if err := o.Submit(job); err != nil {
		t.Fatal(err)
	}
	defer o.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if o.GetJob(job.ID).Snapshot().Status == StatusCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("job did not complete: %+v", o.GetJob(job.ID).Snapshot())
}
