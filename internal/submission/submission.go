// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submission reads the question file and writes the fixed-schema
// submission CSV. The output carries every input column, one column per
// retrieved article slot, and the answer column. Building a submission is
// deterministic: writing the same answers twice produces byte-identical
// files.
package submission

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/submission-engine/internal/keywords"
	"github.com/pdiddy/submission-engine/pkg/types"
)

// utf8BOM is prepended to the output so spreadsheet tools decode the file as
// UTF-8. The loader strips it when present.
const utf8BOM = "\uFEFF"

// Table is an in-memory CSV file with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadTable reads a CSV file into a Table, tolerating a UTF-8 BOM.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return &Table{Header: header, Rows: records[1:]}, nil
}

// WriteTable writes the table as a UTF-8 CSV with a BOM. Missing cells are
// written as empty strings so every row has the full header width.
func WriteTable(path string, table *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	width := len(table.Header)
	for _, row := range table.Rows {
		padded := make([]string, width)
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// columnIndex returns the position of name in header, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// Questions extracts the question list from the input table. The language of
// each question is detected from its text.
func Questions(table *Table, cfg types.SubmissionConfig) ([]types.Question, error) {
	idIdx := columnIndex(table.Header, cfg.IDColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("input table has no %q column", cfg.IDColumn)
	}
	qIdx := columnIndex(table.Header, cfg.QuestionColumn)
	if qIdx < 0 {
		return nil, fmt.Errorf("input table has no %q column", cfg.QuestionColumn)
	}

	questions := make([]types.Question, 0, len(table.Rows))
	for i, row := range table.Rows {
		if idIdx >= len(row) || qIdx >= len(row) {
			return nil, fmt.Errorf("row %d is missing id or question cell", i+1)
		}
		text := strings.TrimSpace(row[qIdx])
		questions = append(questions, types.Question{
			ID:       strings.TrimSpace(row[idIdx]),
			Text:     text,
			Language: keywords.DetectLanguage(text),
		})
	}
	return questions, nil
}

// SlotColumn returns the header name of the n-th article slot, 1-based.
func SlotColumn(cfg types.SubmissionConfig, n int) string {
	return fmt.Sprintf("%s%d", cfg.SlotColumnPrefix, n)
}

// Build produces the submission table from the input table and the answer
// records, keyed by question ID. Every input row appears in the output in its
// original order. Rows with no answer record get empty article slots and an
// empty answer cell. Article slots beyond the available titles are padded
// with empty strings.
func Build(input *Table, answers map[string]types.AnswerRecord, cfg types.SubmissionConfig) (*Table, error) {
	idIdx := columnIndex(input.Header, cfg.IDColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("input table has no %q column", cfg.IDColumn)
	}

	header := make([]string, 0, len(input.Header)+cfg.ArticleSlots+1)
	header = append(header, input.Header...)
	for n := 1; n <= cfg.ArticleSlots; n++ {
		header = append(header, SlotColumn(cfg, n))
	}
	header = append(header, cfg.AnswerColumn)

	rows := make([][]string, 0, len(input.Rows))
	for _, inRow := range input.Rows {
		row := make([]string, len(header))
		copy(row, inRow)

		var rec types.AnswerRecord
		if idIdx < len(inRow) {
			rec = answers[strings.TrimSpace(inRow[idIdx])]
		}
		for n := 0; n < cfg.ArticleSlots; n++ {
			if n < len(rec.Articles) {
				row[len(input.Header)+n] = rec.Articles[n]
			}
		}
		row[len(header)-1] = rec.Answer
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}, nil
}

// Validate checks that a submission table has the full schema and no missing
// cells: every article slot column and the answer column must be present,
// every row must match the header width, and no answer cell may be empty.
func Validate(table *Table, cfg types.SubmissionConfig) error {
	var problems []string

	for n := 1; n <= cfg.ArticleSlots; n++ {
		if columnIndex(table.Header, SlotColumn(cfg, n)) < 0 {
			problems = append(problems, fmt.Sprintf("missing column %s", SlotColumn(cfg, n)))
		}
	}
	ansIdx := columnIndex(table.Header, cfg.AnswerColumn)
	if ansIdx < 0 {
		problems = append(problems, fmt.Sprintf("missing column %s", cfg.AnswerColumn))
	}

	for i, row := range table.Rows {
		if len(row) != len(table.Header) {
			problems = append(problems, fmt.Sprintf("row %d has %d cells, want %d", i+1, len(row), len(table.Header)))
			continue
		}
		if ansIdx >= 0 && strings.TrimSpace(row[ansIdx]) == "" {
			problems = append(problems, fmt.Sprintf("row %d has an empty %s cell", i+1, cfg.AnswerColumn))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid submission: %s", strings.Join(problems, "; "))
	}
	return nil
}
