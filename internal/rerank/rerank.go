// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank orders candidate documents by a weighted combination of
// lexical relevance signals. Scoring is a pure function of the question,
// the document and corpus term statistics; given identical input and
// configuration the output order is fully deterministic. Ties keep the
// original retrieval order.
package rerank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/submission-engine/internal/keywords"
	"github.com/pdiddy/submission-engine/pkg/types"
)

// Reranker scores and orders candidate documents for a question.
type Reranker struct {
	cfg types.RerankConfig
}

// New returns a Reranker with the given weights and limits.
func New(cfg types.RerankConfig) *Reranker {
	return &Reranker{cfg: cfg}
}

// Rerank returns the candidates ordered by descending composite score and
// truncated to the configured K. Near-duplicate documents are filtered for
// diversity; when filtering would leave fewer than K, the dropped
// candidates backfill the list in score order so K documents are returned
// whenever K were available.
func (r *Reranker) Rerank(question string, docs []types.Document) []types.Document {
	if len(docs) == 0 {
		return nil
	}

	topK := r.cfg.TopK
	if topK <= 0 {
		topK = 50
	}

	idf := buildIDF(docs)
	queryVec := tfidfVector(question, idf)
	queryKeywords := keywords.Extract(question)
	queryConcepts := concepts(question)
	queryDomain := estimateDomain(question)

	scored := make([]types.Document, len(docs))
	for i, d := range docs {
		scored[i] = d
		scored[i].Score = r.score(d, queryVec, queryKeywords, queryConcepts, queryDomain, idf)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// Diversity pass over the top 2K, then backfill to K.
	pool := scored
	if len(pool) > topK*2 {
		pool = pool[:topK*2]
	}
	kept, dropped := r.filterByDiversity(pool, idf)
	for len(kept) < topK && len(dropped) > 0 {
		kept = append(kept, dropped[0])
		dropped = dropped[1:]
	}

	// Backfilled documents land at the tail; restore score order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// score combines the five relevance signals with the configured weights.
func (r *Reranker) score(d types.Document, queryVec map[string]float64, queryKeywords, queryConcepts []string, queryDomain string, idf map[string]float64) float64 {
	docVec := tfidfVector(d.Title+" "+d.Abstract, idf)

	tfidf := cosine(queryVec, docVec)
	keyword := r.keywordMatch(queryKeywords, d)
	title := conceptOverlap(queryConcepts, concepts(d.Title))
	quality := documentQuality(d)
	domain := domainConsistency(queryDomain, estimateDomain(d.Abstract))

	return tfidf*r.cfg.TFIDFWeight +
		keyword*r.cfg.KeywordWeight +
		title*r.cfg.TitleWeight +
		quality*r.cfg.QualityWeight +
		domain*r.cfg.DomainWeight
}

// keywordMatch measures what fraction of the question keywords appear in
// the title and abstract, with the configured bias toward title matches.
func (r *Reranker) keywordMatch(queryKeywords []string, d types.Document) float64 {
	if len(queryKeywords) == 0 {
		return 0
	}
	title := strings.ToLower(d.Title)
	abstract := strings.ToLower(d.Abstract)

	var titleHits, abstractHits int
	for _, kw := range queryKeywords {
		kw = strings.ToLower(kw)
		if strings.Contains(title, kw) {
			titleHits++
		}
		if strings.Contains(abstract, kw) {
			abstractHits++
		}
	}

	n := float64(len(queryKeywords))
	bias := r.cfg.TitleMatchBias
	if bias <= 0 || bias > 1 {
		bias = 0.7
	}
	return (float64(titleHits)/n)*bias + (float64(abstractHits)/n)*(1-bias)
}

// filterByDiversity walks the ranked pool and drops documents whose
// similarity to an already kept document exceeds the threshold.
func (r *Reranker) filterByDiversity(pool []types.Document, idf map[string]float64) (kept, dropped []types.Document) {
	threshold := r.cfg.DiversityThreshold
	if threshold <= 0 {
		threshold = 0.8
	}

	vecs := make([]map[string]float64, 0, len(pool))
	for _, d := range pool {
		vec := tfidfVector(d.Title+" "+d.Abstract, idf)

		similar := false
		for _, kv := range vecs {
			if cosine(vec, kv) > threshold {
				similar = true
				break
			}
		}
		if similar {
			dropped = append(dropped, d)
			continue
		}
		kept = append(kept, d)
		vecs = append(vecs, vec)
	}
	return kept, dropped
}

// documentQuality is a length-normalization signal: it penalizes
// degenerate titles and abstracts that are far too short or too long.
func documentQuality(d types.Document) float64 {
	var q float64

	switch tl := len([]rune(d.Title)); {
	case tl >= 10 && tl <= 200:
		q += 0.3
	case tl > 200:
		q += 0.1
	}

	switch al := len([]rune(d.Abstract)); {
	case al >= 50 && al <= 2000:
		q += 0.4
	case al > 2000:
		q += 0.2
	}

	lower := strings.ToLower(d.Title)
	questionStart := false
	for _, w := range []string{"how ", "what ", "why ", "when ", "where "} {
		if strings.HasPrefix(lower, w) {
			questionStart = true
			break
		}
	}
	if !questionStart {
		q += 0.3
	}

	return math.Min(q, 1.0)
}

// conceptOverlap is the Jaccard overlap of two concept sets.
func conceptOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, c := range a {
		setA[c] = true
	}
	union := len(setA)
	var inter int
	seenB := make(map[string]bool, len(b))
	for _, c := range b {
		if seenB[c] {
			continue
		}
		seenB[c] = true
		if setA[c] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// concepts treats longer tokens as the core concepts of a text.
func concepts(text string) []string {
	var out []string
	for _, tok := range tokenize(strings.ToLower(text)) {
		if len([]rune(tok)) > 5 {
			out = append(out, tok)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}

// domainVocabulary maps a coarse research domain to its marker terms.
var domainVocabulary = []struct {
	name  string
	terms []string
}{
	{"computer_science", []string{"algorithm", "neural", "network", "machine", "learning", "artificial", "intelligence", "딥러닝", "알고리즘", "인공지능"}},
	{"mathematics", []string{"mathematics", "mathematical", "equation", "theorem", "proof"}},
	{"medicine", []string{"medical", "clinical", "patient", "treatment", "diagnosis", "disease"}},
	{"engineering", []string{"engineering", "system", "design", "technology", "implementation", "시스템", "설계"}},
	{"business", []string{"business", "management", "corporate", "strategy", "organization", "경영", "기업"}},
	{"sustainability", []string{"sustainability", "environmental", "green", "climate", "지속가능"}},
}

const generalDomain = "general"

// estimateDomain assigns a text to the first domain whose marker terms it
// mentions.
func estimateDomain(text string) string {
	lower := strings.ToLower(text)
	for _, d := range domainVocabulary {
		for _, term := range d.terms {
			if strings.Contains(lower, term) {
				return d.name
			}
		}
	}
	return generalDomain
}

// domainConsistency scores how well two domain estimates agree. An unknown
// domain on either side is neutral rather than a mismatch.
func domainConsistency(a, b string) float64 {
	switch {
	case a == b:
		return 1.0
	case a == generalDomain || b == generalDomain:
		return 0.5
	default:
		return 0.0
	}
}

// --- tf-idf ---

// buildIDF computes inverse document frequencies over the candidate set.
func buildIDF(docs []types.Document) map[string]float64 {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(strings.ToLower(d.Title + " " + d.Abstract)) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log(1 + n/float64(1+count))
	}
	return idf
}

// tfidfVector weights a text's term frequencies by the corpus idf. Terms
// unseen in the corpus get a neutral idf of 1 so query-only terms still
// contribute.
func tfidfVector(text string, idf map[string]float64) map[string]float64 {
	toks := tokenize(strings.ToLower(text))
	if len(toks) == 0 {
		return nil
	}
	tf := make(map[string]float64)
	for _, tok := range toks {
		tf[tok]++
	}
	vec := make(map[string]float64, len(tf))
	for tok, count := range tf {
		w := idf[tok]
		if w == 0 {
			w = 1
		}
		vec[tok] = (count / float64(len(toks))) * w
	}
	return vec
}

// cosine computes the cosine similarity of two sparse vectors.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if dot == 0 || normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
