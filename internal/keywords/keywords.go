// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords extracts and expands search keywords from questions.
// Extraction is language-dependent: Korean questions get particle-stripped
// noun-like tokens, Latin-script questions get stop-word removal with
// technical terms ranked first.
package keywords

import (
	"strings"
	"unicode"

	"github.com/pdiddy/submission-engine/pkg/types"
)

const (
	maxBaseKeywords     = 8
	maxExpandedKeywords = 60
)

// englishStopWords are dropped from Latin-script questions: articles,
// question words, auxiliary verbs and pronouns carry no search signal.
var englishStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
	"how": true, "what": true, "why": true, "when": true, "where": true,
	"which": true, "who": true, "whom": true, "whose": true,
	"can": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "they": true, "them": true, "their": true,
	"we": true, "you": true, "he": true, "she": true, "his": true,
	"her": true, "our": true, "your": true, "my": true, "me": true, "i": true,
	"please": true, "summarize": true, "explain": true, "describe": true,
}

// technicalVocabulary marks short words that still count as technical terms;
// longer words (>6 runes) qualify on length alone.
var technicalVocabulary = map[string]bool{
	"neural": true, "machine": true, "deep": true, "network": true,
	"model": true, "system": true, "method": true, "data": true,
	"energy": true, "sensor": true, "robot": true, "signal": true,
	"safety": true, "design": true, "policy": true, "market": true,
}

// koreanParticles are common josa suffixes stripped from Hangul tokens to
// approximate noun extraction without a morphological analyzer.
var koreanParticles = []string{
	"에서의", "으로의", "에서는", "에게서", "으로써", "으로서",
	"에서", "에게", "부터", "까지", "처럼", "보다", "으로", "이나",
	"은", "는", "이", "가", "을", "를", "에", "의", "와", "과", "로", "도", "만",
}

// relatedTerms is a rule-based expansion map keyed on question substrings.
var relatedTerms = map[string][]string{
	"인공지능":   {"AI", "머신러닝", "딥러닝", "알고리즘"},
	"머신러닝":   {"기계학습", "데이터", "모델"},
	"데이터":    {"분석", "처리", "마이닝"},
	"시스템":    {"구현", "설계", "아키텍처"},
	"보안":     {"암호화", "인증", "프로토콜"},
	"네트워크":   {"통신", "프로토콜", "라우팅"},
	"learning": {"training", "model", "neural"},
	"network":  {"architecture", "protocol", "communication"},
	"security": {"encryption", "authentication"},
	"energy":   {"power", "efficiency", "renewable"},
}

// DetectLanguage infers the question language from script presence.
// Any Hangul rune marks the question as Korean.
func DetectLanguage(text string) types.Language {
	for _, r := range text {
		if unicode.Is(unicode.Hangul, r) {
			return types.LangKorean
		}
	}
	return types.LangEnglish
}

// Extract returns the base keyword set for a question.
func Extract(text string) []string {
	if DetectLanguage(text) == types.LangKorean {
		return extractKorean(text)
	}
	return extractEnglish(text)
}

// extractKorean tokenizes on non-letter boundaries and strips trailing
// particles, keeping tokens longer than one rune.
func extractKorean(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(text) {
		tok = stripParticle(tok)
		if runeLen(tok) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == maxBaseKeywords {
			break
		}
	}
	return out
}

// extractEnglish removes stop words and orders technical terms before
// general ones. Words of three runes or fewer are dropped outright.
func extractEnglish(text string) []string {
	var technical, general []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(strings.ToLower(text)) {
		if len(tok) <= 2 || englishStopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		if len(tok) > 6 || technicalVocabulary[tok] {
			technical = append(technical, tok)
		} else {
			general = append(general, tok)
		}
	}
	out := append(technical, general...)
	if len(out) > maxBaseKeywords {
		out = out[:maxBaseKeywords]
	}
	return out
}

// Expand broadens a base keyword set for retry rounds: raw question words,
// rule-based related terms, and crude suffix stems. Order is deterministic
// (insertion order, duplicates skipped) so retry rounds are reproducible.
func Expand(text string, base []string) []string {
	out := make([]string, 0, len(base))
	seen := make(map[string]bool)
	add := func(kw string) {
		if kw == "" || seen[kw] || len(out) >= maxExpandedKeywords {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}

	for _, kw := range base {
		add(kw)
	}

	for _, tok := range tokenize(text) {
		if runeLen(tok) > 2 {
			add(tok)
		}
	}

	lower := strings.ToLower(text)
	for _, entry := range relatedTermKeys {
		if strings.Contains(lower, entry.key) {
			for _, t := range entry.terms {
				add(t)
			}
		}
	}

	// Suffix stems for ASCII keywords: plural, gerund and past forms.
	for _, kw := range base {
		if !isASCII(kw) {
			continue
		}
		if strings.HasSuffix(kw, "ing") && len(kw) > 5 {
			add(strings.TrimSuffix(kw, "ing"))
		} else if strings.HasSuffix(kw, "ed") && len(kw) > 4 {
			add(strings.TrimSuffix(kw, "ed"))
		} else if strings.HasSuffix(kw, "s") && len(kw) > 3 {
			add(strings.TrimSuffix(kw, "s"))
		}
	}

	return out
}

// relatedTermKeys is relatedTerms with deterministic key iteration order.
var relatedTermKeys = func() []struct {
	key   string
	terms []string
} {
	keys := []string{
		"인공지능", "머신러닝", "데이터", "시스템", "보안", "네트워크",
		"learning", "network", "security", "energy",
	}
	var out []struct {
		key   string
		terms []string
	}
	for _, k := range keys {
		out = append(out, struct {
			key   string
			terms []string
		}{k, relatedTerms[k]})
	}
	return out
}()

// Batch returns the keyword slice for one retry round. Round 0 gets the
// first perRound keywords, round 1 the next perRound, and so on; an empty
// slice signals the rounds are exhausted.
func Batch(keywords []string, round, perRound int) []string {
	if perRound <= 0 {
		perRound = maxBaseKeywords
	}
	start := round * perRound
	if start >= len(keywords) {
		return nil
	}
	end := start + perRound
	if end > len(keywords) {
		end = len(keywords)
	}
	return keywords[start:end]
}

// tokenize splits text into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stripParticle removes the longest matching trailing josa from a Hangul
// token, provided at least two runes remain.
func stripParticle(tok string) string {
	for _, p := range koreanParticles {
		if strings.HasSuffix(tok, p) && runeLen(tok)-runeLen(p) >= 2 {
			return strings.TrimSuffix(tok, p)
		}
	}
	return tok
}

func runeLen(s string) int {
	return len([]rune(s))
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
