// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"fmt"
	"testing"

	"github.com/pdiddy/submission-engine/pkg/types"
)

func defaultReranker() *Reranker {
	return New(types.DefaultConfig().Rerank)
}

// corpusDoc builds a quality-passing document about the given subject.
func corpusDoc(cn, subject string, i int) types.Document {
	return types.Document{
		CN:    cn,
		Title: fmt.Sprintf("Advances in %s research, part %d", subject, i),
		Abstract: fmt.Sprintf("This paper investigates %s with a focus on benchmark evaluation "+
			"and presents empirical results across several standard datasets, variant %d.", subject, i),
	}
}

func TestRerankOrdersByDescendingScore(t *testing.T) {
	question := "How do neural network models improve translation benchmarks?"
	docs := []types.Document{
		corpusDoc("A", "agricultural irrigation scheduling", 1),
		corpusDoc("B", "neural network translation models", 1),
		corpusDoc("C", "medieval pottery classification", 1),
	}

	got := defaultReranker().Rerank(question, docs)

	if len(got) != 3 {
		t.Fatalf("got %d documents, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %f > %f", i, got[i].Score, got[i-1].Score)
		}
	}
	if got[0].CN != "B" {
		t.Errorf("top document = %q, want the on-topic one (B)", got[0].CN)
	}
}

func TestRerankTruncatesToTopK(t *testing.T) {
	question := "machine learning evaluation methods"
	var docs []types.Document
	for i := 0; i < 80; i++ {
		docs = append(docs, corpusDoc(fmt.Sprintf("CN-%02d", i), fmt.Sprintf("subject area %d analysis", i), i))
	}

	got := defaultReranker().Rerank(question, docs)

	if len(got) != 50 {
		t.Fatalf("got %d documents, want exactly 50", len(got))
	}
}

func TestRerankShorterThanK(t *testing.T) {
	question := "machine learning"
	docs := []types.Document{
		corpusDoc("A", "machine learning", 1),
		corpusDoc("B", "statistics", 1),
	}

	got := defaultReranker().Rerank(question, docs)
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
}

func TestRerankEmptyInput(t *testing.T) {
	if got := defaultReranker().Rerank("anything", nil); got != nil {
		t.Errorf("Rerank(nil) = %v, want nil", got)
	}
}

func TestRerankDeterministic(t *testing.T) {
	question := "deep learning for bankruptcy prediction"
	var docs []types.Document
	for i := 0; i < 30; i++ {
		docs = append(docs, corpusDoc(fmt.Sprintf("CN-%02d", i), fmt.Sprintf("financial topic %d", i%7), i))
	}

	a := defaultReranker().Rerank(question, docs)
	b := defaultReranker().Rerank(question, docs)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].CN != b[i].CN || a[i].Score != b[i].Score {
			t.Errorf("position %d differs: %s/%f vs %s/%f", i, a[i].CN, a[i].Score, b[i].CN, b[i].Score)
		}
	}
}

func TestRerankTiesKeepRetrievalOrder(t *testing.T) {
	question := "unrelated subject entirely"
	// Identical metadata except CN scores identically.
	docs := []types.Document{
		{CN: "FIRST", Title: "A Title About Identical Things", Abstract: repeatAbstract()},
		{CN: "SECOND", Title: "A Title About Identical Things", Abstract: repeatAbstract()},
	}
	cfg := types.DefaultConfig().Rerank
	cfg.DiversityThreshold = 1.1 // keep duplicates for this test
	got := New(cfg).Rerank(question, docs)

	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].CN != "FIRST" {
		t.Errorf("tie broken against retrieval order: %q first", got[0].CN)
	}
}

func repeatAbstract() string {
	return "An abstract long enough to clear the quality window and describe the same content twice over for scoring purposes."
}

func TestDiversityFilterDropsNearDuplicates(t *testing.T) {
	question := "neural networks"
	dup := corpusDoc("DUP-1", "neural network pruning", 1)
	dup2 := dup
	dup2.CN = "DUP-2"
	distinct := corpusDoc("DIST", "completely unrelated oceanography currents", 1)

	cfg := types.DefaultConfig().Rerank
	cfg.TopK = 2
	got := New(cfg).Rerank(question, []types.Document{dup, dup2, distinct})

	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].CN == "DUP-1" && got[1].CN == "DUP-2" {
		t.Error("near-duplicate survived diversity filtering ahead of distinct document")
	}
}

func TestRerankBackfillKeepsScoreOrder(t *testing.T) {
	question := "neural networks"
	dup := corpusDoc("DUP-1", "neural network pruning", 1)
	dup2 := dup
	dup2.CN = "DUP-2"
	distinct := corpusDoc("DIST", "completely unrelated oceanography currents", 1)

	// TopK above the candidate count forces the dropped duplicate back in.
	cfg := types.DefaultConfig().Rerank
	cfg.TopK = 3
	got := New(cfg).Rerank(question, []types.Document{dup, dup2, distinct})

	if len(got) != 3 {
		t.Fatalf("got %d documents, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %q %f > %q %f",
				i, got[i].CN, got[i].Score, got[i-1].CN, got[i-1].Score)
		}
	}
	if got[len(got)-1].CN != "DIST" {
		t.Errorf("last document = %q, want the low-scoring distinct one", got[len(got)-1].CN)
	}
}

func TestKeywordMatchWeightsTitle(t *testing.T) {
	r := defaultReranker()
	kws := []string{"neural", "translation"}

	titleHit := r.keywordMatch(kws, types.Document{Title: "Neural translation", Abstract: "nothing relevant"})
	abstractHit := r.keywordMatch(kws, types.Document{Title: "Nothing relevant", Abstract: "neural translation"})

	if titleHit <= abstractHit {
		t.Errorf("title match %f not weighted above abstract match %f", titleHit, abstractHit)
	}
}

func TestDocumentQuality(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
		want float64
	}{
		{
			"good title and abstract",
			types.Document{Title: "A Reasonable Title", Abstract: repeatAbstract()},
			1.0,
		},
		{
			"question-style title",
			types.Document{Title: "How to do research", Abstract: repeatAbstract()},
			0.7,
		},
		{
			"short title and no abstract",
			types.Document{Title: "Tiny", Abstract: ""},
			0.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documentQuality(tt.doc); got != tt.want {
				t.Errorf("documentQuality() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDomainConsistency(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"computer_science", "computer_science", 1.0},
		{"computer_science", "medicine", 0.0},
		{"general", "medicine", 0.5},
		{"general", "general", 1.0},
	}
	for _, tt := range tests {
		if got := domainConsistency(tt.a, tt.b); got != tt.want {
			t.Errorf("domainConsistency(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCosine(t *testing.T) {
	a := map[string]float64{"x": 1, "y": 1}
	if got := cosine(a, a); got < 0.999 || got > 1.001 {
		t.Errorf("cosine(a, a) = %f, want 1", got)
	}
	b := map[string]float64{"z": 1}
	if got := cosine(a, b); got != 0 {
		t.Errorf("cosine(disjoint) = %f, want 0", got)
	}
	if got := cosine(nil, a); got != 0 {
		t.Errorf("cosine(nil, a) = %f, want 0", got)
	}
}
