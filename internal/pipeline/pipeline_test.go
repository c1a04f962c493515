// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/submission-engine/pkg/types"
)

func testPipelineConfig() types.PipelineConfig {
	cfg := types.DefaultConfig()
	cfg.Retrieval.TargetDocs = 6
	cfg.Retrieval.MaxRounds = 2
	cfg.Retrieval.PerKeywordResults = 3
	cfg.Retrieval.KeywordsPerRound = 4
	cfg.Retrieval.QueryDelay = 0
	cfg.Retrieval.EmergencyKeywords = []string{"research"}
	cfg.Rerank.TopK = 5
	cfg.Answer.MaxRetries = 2
	cfg.Answer.RetryDelay = time.Millisecond
	cfg.Answer.MinAnswerLength = 20
	cfg.Answer.MaxContextDocs = 3
	return cfg
}

// fakeSearcher returns distinct plausible documents for every keyword.
type fakeSearcher struct {
	err   error
	calls int
}

func (f *fakeSearcher) SearchArticles(_ context.Context, keyword string, rowCount int) ([]types.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	docs := make([]types.Document, rowCount)
	for i := range docs {
		docs[i] = types.Document{
			CN:       fmt.Sprintf("CN-%s-%d", keyword, i),
			Title:    fmt.Sprintf("A study of %s methods, part %d", keyword, i),
			Abstract: fmt.Sprintf("This research analyzes %s with statistical methods and reports benchmark results, experiment %d.", keyword, i),
		}
	}
	return docs, nil
}

type fakeBackend struct {
	answer string
	err    error
	calls  int
}

func (f *fakeBackend) Generate(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

const validAnswer = "##Title## Findings\n\n##Body## The literature reports consistent improvements across benchmarks.\n\n##Conclusion## Evidence supports the approach."

// fakeStore is an in-memory DocStore.
type fakeStore struct {
	docs   []types.Document
	addErr error
}

func (f *fakeStore) Add(_ context.Context, docs []types.Document) (int, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeStore) Search(_ context.Context, _ string, exclude map[string]bool) ([]types.Document, error) {
	var out []types.Document
	for _, d := range f.docs {
		if !exclude[d.CN] {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testPipelineConfig()
	backend := &fakeBackend{answer: validAnswer}
	p := New(&fakeSearcher{}, backend, &fakeStore{}, cfg)

	questions := []types.Question{
		{ID: "q1", Text: "How do neural networks improve bankruptcy prediction accuracy", Language: types.LangEnglish},
		{ID: "q2", Text: "품질 개선을 위한 빅데이터 분석 방법은 무엇인가", Language: types.LangKorean},
	}

	var progress bytes.Buffer
	result, err := p.Run(context.Background(), questions, &progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Summary.Total() != 2 {
		t.Errorf("summary total = %d, want 2", result.Summary.Total())
	}
	if result.Summary.Degraded != 0 {
		t.Errorf("summary degraded = %d, want 0; progress:\n%s", result.Summary.Degraded, progress.String())
	}

	for _, q := range questions {
		rec, ok := result.Answers[q.ID]
		if !ok {
			t.Fatalf("no answer record for %s", q.ID)
		}
		if rec.Answer != validAnswer {
			t.Errorf("%s answer = %q, want backend answer", q.ID, rec.Answer)
		}
		if len(rec.Articles) == 0 || len(rec.Articles) > cfg.Rerank.TopK {
			t.Errorf("%s has %d articles, want 1..%d", q.ID, len(rec.Articles), cfg.Rerank.TopK)
		}
	}

	if len(result.Report.Questions) != 2 {
		t.Fatalf("report has %d questions, want 2", len(result.Report.Questions))
	}
	if result.Report.Questions[1].Language != "ko" {
		t.Errorf("report language = %q, want ko", result.Report.Questions[1].Language)
	}
	if result.Report.Summary.Total != 2 {
		t.Errorf("report summary total = %d, want 2", result.Report.Summary.Total)
	}
}

func TestRunEverythingFails(t *testing.T) {
	cfg := testPipelineConfig()
	searcher := &fakeSearcher{err: errors.New("search api down")}
	backend := &fakeBackend{err: errors.New("answer api down")}
	p := New(searcher, backend, nil, cfg)

	questions := []types.Question{
		{ID: "q1", Text: "first question about architecture", Language: types.LangEnglish},
		{ID: "q2", Text: "second question about protocols", Language: types.LangEnglish},
		{ID: "q3", Text: "third question about storage", Language: types.LangEnglish},
	}

	result, err := p.Run(context.Background(), questions, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Summary.Degraded != 3 {
		t.Errorf("summary degraded = %d, want 3", result.Summary.Degraded)
	}
	for _, q := range questions {
		rec := result.Answers[q.ID]
		if rec.Answer == "" {
			t.Errorf("%s has an empty answer", q.ID)
		}
		if len(rec.Articles) != 0 {
			t.Errorf("%s has %d articles, want 0", q.ID, len(rec.Articles))
		}
		if !rec.Degraded || rec.Reason == "" {
			t.Errorf("%s not marked degraded with a reason: %+v", q.ID, rec)
		}
	}
}

func TestSupplementFromStore(t *testing.T) {
	cfg := testPipelineConfig()
	store := &fakeStore{}
	for i := 0; i < 10; i++ {
		store.docs = append(store.docs, types.Document{
			CN:       fmt.Sprintf("STORED-%d", i),
			Title:    fmt.Sprintf("An earlier retrieval on networks, part %d", i),
			Abstract: "Findings from a previous question in the same run.",
		})
	}
	searcher := &fakeSearcher{err: errors.New("search api down")}
	backend := &fakeBackend{answer: validAnswer}
	p := New(searcher, backend, store, cfg)

	q := types.Question{ID: "q1", Text: "How are networks analyzed", Language: types.LangEnglish}
	var progress bytes.Buffer
	rec, qr := p.Answer(context.Background(), q, &progress)

	if qr.Retrieved != cfg.Retrieval.TargetDocs {
		t.Errorf("retrieved = %d, want store to top up to %d", qr.Retrieved, cfg.Retrieval.TargetDocs)
	}
	if len(rec.Articles) == 0 {
		t.Error("no articles despite stored documents")
	}
	if !strings.Contains(progress.String(), "supplemented") {
		t.Errorf("progress output missing supplement line:\n%s", progress.String())
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&fakeSearcher{}, &fakeBackend{answer: validAnswer}, nil, testPipelineConfig())
	result, err := p.Run(ctx, []types.Question{{ID: "q1", Text: "a question"}}, &bytes.Buffer{})

	if err == nil {
		t.Fatal("Run returned nil error for a cancelled context")
	}
	if len(result.Answers) != 0 {
		t.Errorf("got %d answers, want 0", len(result.Answers))
	}
}

func TestBatchSummary(t *testing.T) {
	s := BatchSummary{Answered: 7, Degraded: 2}
	if s.Total() != 9 {
		t.Errorf("Total = %d, want 9", s.Total())
	}
	if !s.HasDegraded() {
		t.Error("HasDegraded = false, want true")
	}
	if (BatchSummary{Answered: 3}).HasDegraded() {
		t.Error("HasDegraded = true for a clean run")
	}
}
