package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/oracle"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pathstore"
)

// minChunkTokens keeps even one-line sections in the chunk export.
const minChunkTokens = 1

// WorkerConfig carries the per-document settings a Worker applies.
type WorkerConfig struct {
	Analyzer AnalyzerConfig
	Parser   parser.Options
	Chunker  chunker.Config
}

// Worker processes document jobs. It owns two analyzers, one escalating to
// the oracle and one that never does; neither keeps state between documents.
type Worker struct {
	withOracle *Analyzer
	noOracle   *Analyzer
	pathstore  *pathstore.Client
	log        *slog.Logger
	cfg        WorkerConfig
}

// NewWorker returns a worker. judge and ps may be nil: a nil judge treats
// the oracle as unreachable and a nil ps skips publishing.
func NewWorker(judge oracle.Judge, ps *pathstore.Client, log *slog.Logger, cfg WorkerConfig) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Chunker.MinChunk <= 0 {
		cfg.Chunker.MinChunk = minChunkTokens
	}
	return &Worker{
		withOracle: NewAnalyzer(judge, cfg.Analyzer, log),
		noOracle:   NewAnalyzer(nil, cfg.Analyzer, log),
		pathstore:  ps,
		log:        log,
		cfg:        cfg,
	}
}

// Output is everything one analysis produces.
type Output struct {
	Result *doctree.AnalysisResult `json:"result"`
	Report Report                  `json:"report"`
	Chunks []doctree.Chunk         `json:"chunks"`
}

// Analyze loads data as filename and runs the structure passes and the
// chunk export over it.
func (w *Worker) Analyze(ctx context.Context, filename string, data []byte, useOracle bool) (*Output, error) {
	doc, err := w.load(filename, data)
	if err != nil {
		return nil, err
	}
	return w.analyze(ctx, doc, useOracle)
}

func (w *Worker) load(filename string, data []byte) (*doctree.Document, error) {
	l, err := parser.ForFile(filename, w.cfg.Parser)
	if err != nil {
		return nil, err
	}
	doc, err := l.Load(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return doc, nil
}

func (w *Worker) analyze(ctx context.Context, doc *doctree.Document, useOracle bool) (*Output, error) {
	a := w.noOracle
	if useOracle {
		a = w.withOracle
	}
	res, rep, err := a.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Output{Result: res, Report: rep, Chunks: Chunks(res, w.cfg.Chunker)}, nil
}

// Process runs the full pipeline for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	data := job.FileData()
	hash := ContentHashHex(data)
	job.SetContentHash(hash)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.load(job.Filename, data)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	log.Info("parsed document", "blocks", len(doc.Blocks))

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	out, err := w.analyze(ctx, doc, job.UseOracle)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		job.SetStatus(StatusFailed, "analyzing")
		return
	}
	job.SetResult(out.Result, out.Report, out.Chunks)

	if w.pathstore == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "publishing")
	meta := pathstore.DocumentMeta{
		DocID:       job.DocID,
		Filename:    job.Filename,
		Title:       out.Result.DocMeta.TitleCoreprop,
		ContentHash: hash,
		Sections:    out.Report.Tree.TotalSections,
		Tables:      out.Result.LayoutStats.TableCount,
		SubTables:   out.Report.SyntheticSubTables - out.Report.GrayZone.SubTablesRemoved,
		OracleCalls: out.Report.GrayZone.OracleCalls,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.pathstore.PublishResult(ctx, meta, out.Result); err != nil {
		log.Error("publish failed", "error", err)
		job.AddError(fmt.Sprintf("publish: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.MarkPublished()
	log.Info("published result", "sections", meta.Sections)
	job.SetStatus(StatusCompleted, "done")
}

// Chunks exports res's section tree, preceded by the blocks that appear
// before the first section, as breadcrumbed chunks.
func Chunks(res *doctree.AnalysisResult, cfg chunker.Config) []doctree.Chunk {
	return chunker.ChunkSections(res.Sections, leadingBlocks(res.Blocks), cfg)
}

// leadingBlocks returns the blocks before the first strong heading, which
// the tree leaves without a section.
func leadingBlocks(blocks []doctree.Block) []doctree.Block {
	for i, b := range blocks {
		if p := b.Paragraph; p != nil && p.Candidate != nil && p.Candidate.Strong() {
			return blocks[:i]
		}
	}
	return blocks
}
