// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for the submission pipeline.
package types

// Language tags a question's script family. The answer language mirrors it.
type Language string

const (
	LangKorean  Language = "ko"
	LangEnglish Language = "en"
)

// Question is one immutable input row: an identifier and the question text.
type Question struct {
	// ID is the row identifier from the input table.
	ID string `json:"id" yaml:"id"`

	// Text is the question as asked.
	Text string `json:"text" yaml:"text"`

	// Language is inferred from script presence (Hangul vs Latin).
	Language Language `json:"language" yaml:"language"`
}

// Document is a candidate document returned by the academic search API.
type Document struct {
	// CN is the ScienceON control number, the canonical identifier.
	CN string `json:"cn" yaml:"cn"`

	// Title is the document title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract or content snippet.
	Abstract string `json:"abstract" yaml:"abstract"`

	// SourceURL links back to the source record.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Score is the composite relevance score assigned by the reranker.
	// Zero until the document has been scored.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// AnswerRecord holds the per-question pipeline output. Created once per
// question and never mutated afterwards.
type AnswerRecord struct {
	// QuestionID ties the record back to an input row.
	QuestionID string `json:"question_id" yaml:"question_id"`

	// Answer is the generated (or fallback) answer text, never empty.
	Answer string `json:"answer" yaml:"answer"`

	// Articles are the ranked document titles, best first, at most top-K.
	Articles []string `json:"articles" yaml:"articles"`

	// Degraded reports whether any stage fell back for this question.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`

	// Reason names the degradation cause when Degraded is set
	// (e.g. "generation fallback", "retrieval shortfall: 12/50").
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
