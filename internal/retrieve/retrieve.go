// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve collects candidate documents for a question from the
// academic search API, broadening the query over bounded rounds until a
// target candidate-set size is reached. A shortfall is a soft failure: the
// pipeline proceeds with whatever was found.
package retrieve

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/submission-engine/internal/keywords"
	"github.com/pdiddy/submission-engine/pkg/types"
)

// Searcher issues one keyword query against the academic search API.
// *scienceon.Client implements it; tests supply fakes.
type Searcher interface {
	SearchArticles(ctx context.Context, keyword string, rowCount int) ([]types.Document, error)
}

// Result holds the retrieval outcome for one question.
type Result struct {
	// Documents is the deduplicated candidate list, in retrieval order.
	Documents []types.Document

	// Shortfall is how many documents short of the target the final list
	// is; zero when the target was met.
	Shortfall int

	// Rounds is the number of broadening rounds actually executed.
	Rounds int

	// QueryErrors collects per-keyword soft failures.
	QueryErrors []string
}

// Retriever runs target-seeking retrieval for questions.
type Retriever struct {
	searcher Searcher
	cfg      types.RetrievalConfig

	// sleep is replaceable in tests to avoid real delays.
	sleep func(time.Duration)
}

// New returns a Retriever over the given search backend.
func New(searcher Searcher, cfg types.RetrievalConfig) *Retriever {
	return &Retriever{
		searcher: searcher,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
}

// Retrieve gathers candidate documents for one question. Progress and soft
// failures are reported to w. The returned list never exceeds twice the
// configured target; the reranker handles the final truncation.
func (r *Retriever) Retrieve(ctx context.Context, q types.Question, w io.Writer) Result {
	target := r.cfg.TargetDocs
	if target <= 0 {
		target = 50
	}
	maxRounds := r.cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 5
	}

	base := keywords.Extract(q.Text)
	expanded := keywords.Expand(q.Text, base)

	var result Result
	var all []types.Document

	for round := 0; round < maxRounds; round++ {
		batch := keywords.Batch(expanded, round, r.cfg.KeywordsPerRound)
		if len(batch) == 0 {
			break
		}
		result.Rounds = round + 1

		all = r.queryKeywords(ctx, batch, r.cfg.PerKeywordResults, all, target, &result, w)
		all = qualityFilter(deduplicate(all))

		if len(all) >= target {
			break
		}
		fmt.Fprintf(w, "round %d: %d/%d documents\n", round+1, len(all), target)
	}

	// Last resort: generic academic terms, then raw question words.
	if len(all) < target {
		all = r.emergencySearch(ctx, q.Text, all, target, &result, w)
	}

	if limit := target * 2; len(all) > limit {
		all = all[:limit]
	}
	if len(all) < target {
		result.Shortfall = target - len(all)
		fmt.Fprintf(w, "warning: retrieval shortfall for question %s: %d/%d documents\n", q.ID, len(all), target)
	}

	result.Documents = all
	return result
}

// queryKeywords runs one keyword batch, accumulating raw documents. Query
// failures are recorded and skipped, never propagated.
func (r *Retriever) queryKeywords(ctx context.Context, batch []string, rowCount int, all []types.Document, target int, result *Result, w io.Writer) []types.Document {
	for _, kw := range batch {
		docs, err := r.searcher.SearchArticles(ctx, kw, rowCount)
		if err != nil {
			msg := fmt.Sprintf("keyword %q: %v", kw, err)
			result.QueryErrors = append(result.QueryErrors, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
			continue
		}
		all = append(all, docs...)
		if r.cfg.QueryDelay > 0 {
			r.sleep(r.cfg.QueryDelay)
		}
		// Enough raw material for this round once we hold twice the target.
		if len(all) >= target*2 {
			break
		}
	}
	return all
}

// emergencySearch pads a shortfall with generic academic keywords and the
// question's own words.
func (r *Retriever) emergencySearch(ctx context.Context, questionText string, all []types.Document, target int, result *Result, w io.Writer) []types.Document {
	fmt.Fprintf(w, "emergency search: %d more documents needed\n", target-len(all))

	terms := append([]string{}, r.cfg.EmergencyKeywords...)
	for _, word := range strings.Fields(questionText) {
		word = strings.Trim(word, "?.!,")
		if len([]rune(word)) > 2 {
			terms = append(terms, word)
		}
	}

	rowCount := r.cfg.PerKeywordResults / 2
	if rowCount <= 0 {
		rowCount = 10
	}

	for _, kw := range terms {
		if len(all) >= target {
			break
		}
		docs, err := r.searcher.SearchArticles(ctx, kw, rowCount)
		if err != nil {
			result.QueryErrors = append(result.QueryErrors, fmt.Sprintf("emergency keyword %q: %v", kw, err))
			continue
		}
		all = deduplicate(append(all, docs...))
		if r.cfg.QueryDelay > 0 {
			r.sleep(r.cfg.QueryDelay)
		}
	}
	return all
}

// deduplicate merges documents that share a control number or normalized
// title, keeping first-seen order and filling empty fields from later
// duplicates.
func deduplicate(docs []types.Document) []types.Document {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.Document

	for _, d := range docs {
		key := ""
		if d.CN != "" {
			key = "cn:" + d.CN
		}
		titleKey := "title:" + NormalizeTitle(d.Title)

		if idx, ok := lookup(seen, key, titleKey); ok {
			mergeInto(&deduped[idx], d)
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, d)
		if key != "" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped
}

func lookup(seen map[string]int, keys ...string) (int, bool) {
	for _, k := range keys {
		if k == "" || k == "cn:" || k == "title:" {
			continue
		}
		if idx, ok := seen[k]; ok {
			return idx, true
		}
	}
	return 0, false
}

// mergeInto fills empty fields of dst from src.
func mergeInto(dst *types.Document, src types.Document) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.CN == "" && src.CN != "" {
		dst.CN = src.CN
	}
	if dst.SourceURL == "" && src.SourceURL != "" {
		dst.SourceURL = src.SourceURL
	}
	// Prefer the longer abstract; snippet length varies by query.
	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title, used as the dedup key when no control number is present.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// questionPrefixes mark search results that are themselves questions
// rather than papers; these pollute the candidate set.
var questionPrefixes = []string{"how ", "what ", "why ", "when ", "where ", "which ", "who "}

// qualityFilter drops candidates with degenerate metadata: very short
// titles, missing abstracts, or question-style titles.
func qualityFilter(docs []types.Document) []types.Document {
	var out []types.Document
	for _, d := range docs {
		title := strings.ToLower(d.Title)
		if len([]rune(d.Title)) < 10 {
			continue
		}
		if len(d.Abstract) < 20 {
			continue
		}
		if hasAnyPrefix(title, questionPrefixes) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
