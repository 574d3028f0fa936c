// Package grayzone escalates borderline headings and sub-tables to an
// external judge under a per-run call budget. Every item the judge does not
// explicitly confirm keeps the conservative outcome: headings stay weak and
// sub-tables are detached.
package grayzone

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/oracle"
	"github.com/dgallion1/docoutline/internal/subtable"
)

// Decision kinds, each with its own budget.
const (
	KindHeading  = "heading"
	KindSubTable = "subtable"
)

// Batch sizes and applied values.
const (
	HeadingBatch        = 3
	SubTableBatch       = 2
	SignalUpgraded      = "model-assisted:upgraded"
	SignalConfirmed     = "model-confirmed"
	ConfirmedConfidence = 0.85
)

// Resolver holds the judge and budget limit. It keeps no per-run state, so
// one Resolver may serve concurrent runs.
type Resolver struct {
	judge  oracle.Judge
	budget int
	log    *slog.Logger
}

// NewResolver returns a resolver. A nil judge behaves as an unreachable
// oracle.
func NewResolver(judge oracle.Judge, budget int, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{judge: judge, budget: budget, log: log}
}

// Result counts one resolution pass.
type Result struct {
	HeadingsEscalated  int `json:"headings_escalated"`
	SubTablesEscalated int `json:"subtables_escalated"`
	OracleCalls        int `json:"oracle_calls"`
	HeadingsUpgraded   int `json:"headings_upgraded"`
	SubTablesConfirmed int `json:"subtables_confirmed"`
	SubTablesRemoved   int `json:"subtables_removed"`
}

// Resolve escalates gray-zone headings, then gray-zone sub-tables, and
// applies the decisions to blocks in place.
func (r *Resolver) Resolve(ctx context.Context, blocks []doctree.Block) Result {
	var res Result
	budget := oracle.NewBudget(r.budget)

	headings := CollectHeadings(blocks)
	res.HeadingsEscalated = len(headings)
	for start := 0; start < len(headings); start += HeadingBatch {
		batch := headings[start:min(start+HeadingBatch, len(headings))]
		decisions := r.ask(ctx, budget, KindHeading, BuildHeadingPrompt(batch), len(batch), &res)
		for i, it := range batch {
			if !ConservativeDefault(decisions[i]) {
				continue
			}
			c := it.para.Candidate.WithScore(doctree.StrongThreshold, SignalUpgraded)
			it.para.Candidate = &c
			res.HeadingsUpgraded++
		}
	}

	subs := CollectSubTables(blocks)
	res.SubTablesEscalated = len(subs)
	for start := 0; start < len(subs); start += SubTableBatch {
		batch := subs[start:min(start+SubTableBatch, len(subs))]
		decisions := r.ask(ctx, budget, KindSubTable, BuildSubTablePrompt(batch), len(batch), &res)
		for i, it := range batch {
			if ConservativeDefault(decisions[i]) {
				confirm(it)
				res.SubTablesConfirmed++
				continue
			}
			if subtable.Remove(it.parent, it.ID) {
				res.SubTablesRemoved++
			}
		}
	}
	return res
}

// ask issues one batch. Failures of any kind yield all-undecided answers.
func (r *Resolver) ask(ctx context.Context, budget *oracle.Budget, kind, prompt string, n int, res *Result) []Decision {
	undecided := make([]Decision, n)
	if r.judge == nil {
		return undecided
	}
	if err := budget.Take(kind); err != nil {
		if errors.Is(err, oracle.ErrBudgetExhausted) {
			r.log.Info("oracle budget exhausted", "kind", kind, "used", budget.Used(kind), "batch_size", n)
		}
		return undecided
	}
	res.OracleCalls++

	answer, err := r.judge.Ask(ctx, prompt)
	if err != nil {
		r.log.Warn("oracle batch failed, applying conservative default", "kind", kind, "batch_size", n, "error", err)
		return undecided
	}
	decisions := ParseAnswers(answer, n)
	r.log.Debug("oracle batch answered", "kind", kind, "batch_size", n, "decisions", decisions)
	return decisions
}

func confirm(it SubTableItem) {
	it.table.Metadata.HeaderSignals = append(it.table.Metadata.HeaderSignals, doctree.HeaderSignal{
		Type:       SignalConfirmed,
		Confidence: ConfirmedConfidence,
	})
}
