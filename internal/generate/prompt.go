// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/submission-engine/pkg/types"
)

// Prompts instruct the model to answer in the question's language with a
// fixed report structure (title, introduction, body, conclusion) and
// without meta commentary about the provided documents.

var koreanPromptTmpl = template.Must(template.New("ko").Parse(`당신은 주어진 학술 문서들을 바탕으로 질문에 대한 심층 분석 보고서를 작성하는 전문 연구원입니다.

## 참고 문서:
{{.Context}}

## 질문:
{{.Question}}

## 답변 작성 원칙:
- 한국어로 답변하세요.
- 해당 분야 전문가 수준의 구체적인 내용을 작성하세요.
- "제공된 문서를 바탕으로", "문서 1에서는" 같은 메타 설명을 사용하지 마세요.
- 다음 구조를 사용하세요: ##제목## ##서론## ##본론## ##결론##

## 답변:
`))

var englishPromptTmpl = template.Must(template.New("en").Parse(`You are a research specialist writing an analytical report that answers a question using the academic documents provided.

## Reference documents:
{{.Context}}

## Question:
{{.Question}}

## Writing principles:
- Answer in English.
- Write concrete, expert-level content.
- Never use meta commentary such as "based on the provided documents" or "document 1 shows".
- Use this structure: ##Title## ##Introduction## ##Body## ##Conclusion##

## Answer:
`))

var simplePromptTmpl = template.Must(template.New("simple").Parse(`Answer the question below using the reference documents. Reply in the same language as the question, at least {{.MinLength}} characters, without meta commentary about the documents.

## Reference documents:
{{.Context}}

## Question:
{{.Question}}

## Answer:
`))

type promptData struct {
	Question  string
	Context   string
	MinLength int
}

// BuildPrompt renders the structured answer prompt for a question, embedding
// the top context documents. The prompt language mirrors the question
// language.
func BuildPrompt(q types.Question, docs []types.Document, maxContextDocs int) string {
	data := promptData{
		Question: q.Text,
		Context:  buildContext(docs, maxContextDocs, q.Language),
	}
	tmpl := englishPromptTmpl
	if q.Language == types.LangKorean {
		tmpl = koreanPromptTmpl
	}
	return render(tmpl, data)
}

// BuildSimplePrompt renders the reduced prompt used for the retry attempt.
func BuildSimplePrompt(q types.Question, docs []types.Document, maxContextDocs, minLength int) string {
	return render(simplePromptTmpl, promptData{
		Question:  q.Text,
		Context:   buildContext(docs, maxContextDocs, q.Language),
		MinLength: minLength,
	})
}

// render executes a prompt template. The templates are static and compiled
// at init, so a failure here is a programming error.
func render(tmpl *template.Template, data promptData) string {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("rendering %s prompt: %v", tmpl.Name(), err))
	}
	return b.String()
}

// buildContext formats the top documents as numbered blocks with the key
// sentences pulled out of each abstract.
func buildContext(docs []types.Document, maxDocs int, lang types.Language) string {
	if maxDocs <= 0 {
		maxDocs = 5
	}
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}
	if len(docs) == 0 {
		if lang == types.LangKorean {
			return "(관련 문서 없음)"
		}
		return "(no relevant documents)"
	}

	titleLabel, abstractLabel, methodLabel, resultLabel := "Title", "Abstract", "Key methods", "Key results"
	if lang == types.LangKorean {
		titleLabel, abstractLabel, methodLabel, resultLabel = "제목", "초록", "주요 방법", "주요 결과"
	}

	var parts []string
	for i, d := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, titleLabel, d.Title)
		fmt.Fprintf(&b, "%s: %s\n", abstractLabel, d.Abstract)
		if methods := extractSentences(d.Abstract, methodKeywords, 2); len(methods) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", methodLabel, strings.Join(methods, " / "))
		}
		if results := extractSentences(d.Abstract, resultKeywords, 2); len(results) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", resultLabel, strings.Join(results, " / "))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

var methodKeywords = []string{
	"method", "approach", "technique", "algorithm", "framework", "model", "procedure",
	"방법", "기법", "모델", "알고리즘",
}

var resultKeywords = []string{
	"result", "outcome", "performance", "accuracy", "improvement", "effectiveness",
	"결과", "성능", "향상", "개선",
}

// extractSentences returns up to max sentences mentioning any keyword.
func extractSentences(text string, kws []string, max int) []string {
	var out []string
	for _, sentence := range strings.Split(text, ".") {
		lower := strings.ToLower(sentence)
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				trimmed := strings.TrimSpace(sentence)
				if trimmed != "" {
					out = append(out, trimmed)
				}
				break
			}
		}
		if len(out) == max {
			break
		}
	}
	return out
}
