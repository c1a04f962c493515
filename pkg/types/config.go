// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "submission-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the document retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// TargetDocs is the candidate-set size the retriever aims for (default 50).
	TargetDocs int `json:"target_docs" yaml:"target_docs"`

	// MaxRounds bounds the number of query-broadening rounds (default 5).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// PerKeywordResults is the row count requested per keyword query (default 25).
	PerKeywordResults int `json:"per_keyword_results" yaml:"per_keyword_results"`

	// KeywordsPerRound limits how many keywords are queried in one round (default 15).
	KeywordsPerRound int `json:"keywords_per_round" yaml:"keywords_per_round"`

	// QueryDelay is the pause between consecutive API queries (default 300ms).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// EmergencyKeywords are generic academic terms queried as a last resort
	// when broadened queries still cannot reach TargetDocs.
	EmergencyKeywords []string `json:"emergency_keywords" yaml:"emergency_keywords"`
}

// RerankConfig holds the scoring weights and limits for the reranking stage.
// Weights are fixed configuration constants, not learned; the defaults come
// from manual tuning and are independently overridable.
type RerankConfig struct {
	// TopK is the ranked-list length the reranker truncates to (default 50).
	TopK int `json:"top_k" yaml:"top_k"`

	// TFIDFWeight scales the tf-idf cosine similarity signal (default 0.30).
	TFIDFWeight float64 `json:"tfidf_weight" yaml:"tfidf_weight"`

	// KeywordWeight scales the keyword intersection signal (default 0.25).
	KeywordWeight float64 `json:"keyword_weight" yaml:"keyword_weight"`

	// TitleWeight scales the title concept-overlap signal (default 0.20).
	TitleWeight float64 `json:"title_weight" yaml:"title_weight"`

	// QualityWeight scales the document length/quality signal (default 0.15).
	QualityWeight float64 `json:"quality_weight" yaml:"quality_weight"`

	// DomainWeight scales the domain-consistency signal (default 0.10).
	DomainWeight float64 `json:"domain_weight" yaml:"domain_weight"`

	// TitleMatchBias splits the keyword signal between title and abstract
	// matches (default 0.7 toward the title).
	TitleMatchBias float64 `json:"title_match_bias" yaml:"title_match_bias"`

	// DiversityThreshold drops a candidate whose similarity to an already
	// selected document exceeds this value (default 0.8).
	DiversityThreshold float64 `json:"diversity_threshold" yaml:"diversity_threshold"`
}

// AnswerConfig holds settings for the answer generation stage.
type AnswerConfig struct {
	// Model is the generative model identifier (e.g. "gemini-1.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generative API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of generation attempts before falling back (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the pause between generation attempts (default 1s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// MinAnswerLength rejects generated answers shorter than this many
	// characters (default 50).
	MinAnswerLength int `json:"min_answer_length" yaml:"min_answer_length"`

	// MaxContextDocs is the number of top-ranked documents embedded in the
	// prompt (default 5).
	MaxContextDocs int `json:"max_context_docs" yaml:"max_context_docs"`
}

// SubmissionConfig holds the output table contract.
type SubmissionConfig struct {
	// ArticleSlots is the fixed number of article-title columns (default 50).
	ArticleSlots int `json:"article_slots" yaml:"article_slots"`

	// AnswerColumn is the name of the generated-answer column.
	AnswerColumn string `json:"answer_column" yaml:"answer_column"`

	// SlotColumnPrefix is the prefix for article-title columns; slot i is
	// named SlotColumnPrefix followed by i, starting at 1.
	SlotColumnPrefix string `json:"slot_column_prefix" yaml:"slot_column_prefix"`

	// QuestionColumn is the input column holding the question text.
	QuestionColumn string `json:"question_column" yaml:"question_column"`

	// IDColumn is the input column holding the row identifier.
	IDColumn string `json:"id_column" yaml:"id_column"`
}

// StoreConfig holds settings for the session document store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty selects an in-memory store.
	Path string `json:"path" yaml:"path"`

	// MaxResults caps how many supplementary documents one lookup returns
	// (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval"`
	Rerank     RerankConfig     `json:"rerank" yaml:"rerank"`
	Answer     AnswerConfig     `json:"answer" yaml:"answer"`
	Submission SubmissionConfig `json:"submission" yaml:"submission"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// DefaultEmergencyKeywords are the generic academic terms used for
// last-resort queries, mixed Korean and English to cover either corpus.
var DefaultEmergencyKeywords = []string{
	"연구", "분석", "방법", "시스템", "기술", "개발",
	"research", "analysis", "method", "system",
}

// DefaultConfig returns the pipeline configuration with tuned defaults.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Retrieval: RetrievalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "submission-engine/0.1",
			},
			TargetDocs:        50,
			MaxRounds:         5,
			PerKeywordResults: 25,
			KeywordsPerRound:  15,
			QueryDelay:        300 * time.Millisecond,
			EmergencyKeywords: DefaultEmergencyKeywords,
		},
		Rerank: RerankConfig{
			TopK:               50,
			TFIDFWeight:        0.30,
			KeywordWeight:      0.25,
			TitleWeight:        0.20,
			QualityWeight:      0.15,
			DomainWeight:       0.10,
			TitleMatchBias:     0.7,
			DiversityThreshold: 0.8,
		},
		Answer: AnswerConfig{
			Model:           "gemini-1.5-flash",
			MaxRetries:      3,
			RetryDelay:      time.Second,
			MinAnswerLength: 50,
			MaxContextDocs:  5,
		},
		Submission: SubmissionConfig{
			ArticleSlots:     50,
			AnswerColumn:     "Prediction",
			SlotColumnPrefix: "prediction_retrieved_article_name_",
			QuestionColumn:   "Question",
			IDColumn:         "id",
		},
		Store: StoreConfig{
			MaxResults: 50,
		},
	}
}
