// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submission

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/submission-engine/pkg/types"
)

// RunReport is the on-disk record of one pipeline run. Timing and
// degradation details live here rather than in the submission CSV, which
// keeps the CSV stable across reruns with the same answers.
type RunReport struct {
	Config    types.PipelineConfig `yaml:"config"`
	Questions []QuestionReport     `yaml:"questions"`
	Summary   RunSummary           `yaml:"summary"`
}

// QuestionReport records how one question was processed.
type QuestionReport struct {
	ID        string        `yaml:"id"`
	Language  string        `yaml:"language"`
	Retrieved int           `yaml:"retrieved"`
	Reranked  int           `yaml:"reranked"`
	Degraded  bool          `yaml:"degraded"`
	Reason    string        `yaml:"reason,omitempty"`
	Elapsed   time.Duration `yaml:"elapsed"`
}

// RunSummary stores run-level counts and a timestamp.
type RunSummary struct {
	Total     int           `yaml:"total"`
	Answered  int           `yaml:"answered"`
	Degraded  int           `yaml:"degraded"`
	Elapsed   time.Duration `yaml:"elapsed"`
	Timestamp time.Time     `yaml:"timestamp"`
}

// WriteRunReport saves the run report to a YAML file.
func WriteRunReport(path string, report *RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadRunReport loads a run report from a YAML file.
func ReadRunReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var report RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &report, nil
}
