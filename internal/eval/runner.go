package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sagliklab/tahlil/internal/extract"
	"github.com/sagliklab/tahlil/internal/vision"
)

// Runner executes the full pipeline against a directory of test cases.
// Each case is a directory holding input.pdf and, optionally,
// expected.json with ground truth.
type Runner struct {
	TestCasesDir string
	RunsDir      string
	CaseFilter   string // substring match on case names, "" = all
	Request      extract.Request
	Logger       *slog.Logger
}

// CaseResult is the outcome for one test case.
type CaseResult struct {
	Case   string          `json:"case"`
	Output *extract.Result `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
	Scores *Scores         `json:"scores,omitempty"`
}

// RunData is the persisted result set for one run.
type RunData struct {
	RunID      string       `json:"run_id"`
	Model      string       `json:"model"`
	PromptHash string       `json:"prompt_hash"`
	Date       string       `json:"date"`
	Results    []CaseResult `json:"results"`
}

// settings is recorded alongside results for reproducibility.
type settings struct {
	RunID      string `json:"run_id"`
	Model      string `json:"model"`
	Date       string `json:"date"`
	Pipeline   string `json:"pipeline"`
	PromptHash string `json:"prompt_hash"`
}

// Run executes every matching test case and writes settings.json and
// results.json under RunsDir. Individual case failures are recorded, not
// fatal to the run.
func (r *Runner) Run(ctx context.Context) (*RunData, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	cases, err := r.findCases()
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found in %s", r.TestCasesDir)
	}

	runID := fmt.Sprintf("%s_%s_%s",
		time.Now().Format("2006-01-02"), r.Request.Model, uuid.New().String()[:8])
	log.Info("starting eval run", "run_id", runID, "cases", len(cases))

	data := &RunData{
		RunID:      runID,
		Model:      r.Request.Model,
		PromptHash: vision.PromptHash(),
		Date:       time.Now().UTC().Format(time.RFC3339),
	}

	for _, caseName := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data.Results = append(data.Results, r.runCase(ctx, caseName, log))
	}

	if err := r.persist(runID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Runner) runCase(ctx context.Context, caseName string, log *slog.Logger) CaseResult {
	caseDir := filepath.Join(r.TestCasesDir, caseName)
	result := CaseResult{Case: caseName}

	pdf, err := os.ReadFile(filepath.Join(caseDir, "input.pdf"))
	if err != nil {
		result.Error = fmt.Sprintf("failed to read input.pdf: %v", err)
		return result
	}

	req := r.Request
	req.PDF = pdf
	req.Logger = log.With("case", caseName)

	output, err := extract.Run(ctx, req)
	if err != nil {
		result.Error = err.Error()
		log.Warn("case failed", "case", caseName, "error", err)
		return result
	}
	result.Output = output

	expected, err := loadExpected(filepath.Join(caseDir, "expected.json"))
	if err != nil {
		log.Warn("skipping scoring", "case", caseName, "error", err)
		return result
	}
	result.Scores = Score(output.SampleDate, output.Metrics, expected)
	return result
}

// findCases lists case directories that contain an input.pdf.
func (r *Runner) findCases() ([]string, error) {
	entries, err := os.ReadDir(r.TestCasesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test cases dir: %w", err)
	}

	var cases []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if r.CaseFilter != "" && !strings.Contains(e.Name(), r.CaseFilter) {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.TestCasesDir, e.Name(), "input.pdf")); err != nil {
			continue
		}
		cases = append(cases, e.Name())
	}
	sort.Strings(cases)
	return cases, nil
}

// loadExpected reads ground truth; a missing file means unscored, not an
// error worth failing the case over.
func loadExpected(path string) (*Expected, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var exp Expected
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("malformed expected.json: %w", err)
	}
	return &exp, nil
}

func (r *Runner) persist(runID string, data *RunData) error {
	runDir := filepath.Join(r.RunsDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("failed to create run dir: %w", err)
	}

	s := settings{
		RunID:      runID,
		Model:      data.Model,
		Date:       data.Date,
		Pipeline:   "pdf → pdftoppm (png) → vision model → merged json",
		PromptHash: data.PromptHash,
	}
	if err := writeJSON(filepath.Join(runDir, "settings.json"), s); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, "results.json"), data)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
