// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains retrieval, the session document store, reranking
// and answer generation for a batch of questions. Failures in any stage are
// contained per question: a question that hits trouble still produces an
// answer record, marked degraded, and never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/submission-engine/internal/generate"
	"github.com/pdiddy/submission-engine/internal/rerank"
	"github.com/pdiddy/submission-engine/internal/retrieve"
	"github.com/pdiddy/submission-engine/internal/submission"
	"github.com/pdiddy/submission-engine/pkg/types"
)

// DocStore is the session document store used to supplement thin retrievals.
// *docstore.Store implements it; tests supply fakes. A nil store disables
// supplementation.
type DocStore interface {
	Add(ctx context.Context, docs []types.Document) (int, error)
	Search(ctx context.Context, question string, exclude map[string]bool) ([]types.Document, error)
}

// BatchSummary holds counts from one batch run.
type BatchSummary struct {
	Answered int
	Degraded int
}

// Total returns the number of questions processed.
func (s BatchSummary) Total() int {
	return s.Answered + s.Degraded
}

// HasDegraded reports whether any question took a fallback path.
func (s BatchSummary) HasDegraded() bool {
	return s.Degraded > 0
}

// Result is the output of one batch run.
type Result struct {
	// Answers maps question ID to its answer record.
	Answers map[string]types.AnswerRecord

	// Report holds per-question timing and degradation details.
	Report *submission.RunReport

	// Summary holds run-level counts.
	Summary BatchSummary
}

// Pipeline answers questions end to end.
type Pipeline struct {
	retriever *retrieve.Retriever
	reranker  *rerank.Reranker
	generator *generate.Generator
	store     DocStore
	cfg       types.PipelineConfig
}

// New assembles a pipeline from the search API client, the answer backend
// and an optional session store.
func New(searcher retrieve.Searcher, backend generate.Backend, store DocStore, cfg types.PipelineConfig) *Pipeline {
	return &Pipeline{
		retriever: retrieve.New(searcher, cfg.Retrieval),
		reranker:  rerank.New(cfg.Rerank),
		generator: generate.NewGenerator(backend, cfg.Answer),
		store:     store,
		cfg:       cfg,
	}
}

// Run answers every question in order, writing progress to w. It stops early
// only when ctx is cancelled, returning the records completed so far along
// with the context error.
func (p *Pipeline) Run(ctx context.Context, questions []types.Question, w io.Writer) (Result, error) {
	result := Result{
		Answers: make(map[string]types.AnswerRecord, len(questions)),
		Report:  &submission.RunReport{Config: p.cfg},
	}
	start := time.Now()

	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			p.finish(&result, start)
			return result, err
		}

		fmt.Fprintf(w, "answering %s\n", q.ID)
		rec, qr := p.Answer(ctx, q, w)
		result.Answers[q.ID] = rec
		result.Report.Questions = append(result.Report.Questions, qr)

		if rec.Degraded {
			fmt.Fprintf(w, "degraded %s: %s\n", q.ID, rec.Reason)
			result.Summary.Degraded++
		} else {
			fmt.Fprintf(w, "answered %s (%d articles)\n", q.ID, len(rec.Articles))
			result.Summary.Answered++
		}
	}

	p.finish(&result, start)
	return result, nil
}

func (p *Pipeline) finish(result *Result, start time.Time) {
	result.Report.Summary = submission.RunSummary{
		Total:     result.Summary.Total(),
		Answered:  result.Summary.Answered,
		Degraded:  result.Summary.Degraded,
		Elapsed:   time.Since(start),
		Timestamp: time.Now(),
	}
}

// Answer processes one question through every stage and always returns a
// usable record.
func (p *Pipeline) Answer(ctx context.Context, q types.Question, w io.Writer) (types.AnswerRecord, submission.QuestionReport) {
	start := time.Now()
	var reasons []string

	res := p.retriever.Retrieve(ctx, q, w)
	docs := p.supplement(ctx, q, res.Documents, w)
	if target := p.cfg.Retrieval.TargetDocs; len(docs) < target {
		reasons = append(reasons, fmt.Sprintf("retrieval %d short of target", target-len(docs)))
	}

	ranked := p.reranker.Rerank(q.Text, docs)
	articles := make([]string, 0, len(ranked))
	for _, d := range ranked {
		articles = append(articles, d.Title)
	}

	out := p.generator.Generate(ctx, q, ranked)
	if out.Degraded {
		reasons = append(reasons, out.Reason)
	}

	rec := types.AnswerRecord{
		QuestionID: q.ID,
		Answer:     out.Answer,
		Articles:   articles,
		Degraded:   len(reasons) > 0,
		Reason:     strings.Join(reasons, "; "),
	}
	qr := submission.QuestionReport{
		ID:        q.ID,
		Language:  string(q.Language),
		Retrieved: len(docs),
		Reranked:  len(ranked),
		Degraded:  rec.Degraded,
		Reason:    rec.Reason,
		Elapsed:   time.Since(start),
	}
	return rec, qr
}

// supplement feeds retrieved documents into the session store, then tops up
// thin candidate lists from documents stored by earlier questions. Store
// errors are soft: the pipeline continues with whatever it has.
func (p *Pipeline) supplement(ctx context.Context, q types.Question, docs []types.Document, w io.Writer) []types.Document {
	if p.store == nil {
		return docs
	}

	if _, err := p.store.Add(ctx, docs); err != nil {
		fmt.Fprintf(w, "warning: storing documents for %s: %v\n", q.ID, err)
	}

	target := p.cfg.Retrieval.TargetDocs
	if len(docs) >= target {
		return docs
	}

	exclude := make(map[string]bool, len(docs))
	for _, d := range docs {
		exclude[d.CN] = true
	}
	extra, err := p.store.Search(ctx, q.Text, exclude)
	if err != nil {
		fmt.Fprintf(w, "warning: store lookup for %s: %v\n", q.ID, err)
		return docs
	}

	needed := target - len(docs)
	if len(extra) > needed {
		extra = extra[:needed]
	}
	if len(extra) > 0 {
		fmt.Fprintf(w, "supplemented %s with %d stored documents\n", q.ID, len(extra))
	}
	return append(docs, extra...)
}
