package eval

import (
	"testing"

	"github.com/sagliklab/tahlil/internal/merge"
)

func TestScore(t *testing.T) {
	expected := &Expected{
		SampleDate: "2024-03-15",
		Metrics: []merge.Metric{
			{Name: "Glukoz", Value: 95},
			{Name: "Kreatinin", Value: 0.9},
			{Name: "TSH", Value: 2.1},
		},
	}

	actual := []merge.Metric{
		{Name: "Glukoz", Value: 95},     // correct
		{Name: "Kreatinin", Value: 1.9}, // wrong value
		{Name: "Ferritin", Value: 300},  // hallucinated
	}

	s := Score("2024-03-15", actual, expected)
	if s == nil {
		t.Fatal("Score() = nil with expected present")
	}

	if !s.Date.Match {
		t.Error("date should match")
	}
	if s.Metrics.Matched != 2 {
		t.Errorf("Matched = %d, want 2", s.Metrics.Matched)
	}
	if len(s.Metrics.Missed) != 1 || s.Metrics.Missed[0] != "TSH" {
		t.Errorf("Missed = %v, want [TSH]", s.Metrics.Missed)
	}
	if len(s.Metrics.Hallucinated) != 1 || s.Metrics.Hallucinated[0] != "Ferritin" {
		t.Errorf("Hallucinated = %v, want [Ferritin]", s.Metrics.Hallucinated)
	}
	if s.Values.Correct != 1 || s.Values.Wrong != 1 {
		t.Errorf("Values = %d correct / %d wrong, want 1/1", s.Values.Correct, s.Values.Wrong)
	}
	if s.Values.Accuracy != "50.0%" {
		t.Errorf("Accuracy = %q, want 50.0%%", s.Values.Accuracy)
	}
	if len(s.Values.Errors) != 1 || s.Values.Errors[0].Name != "Kreatinin" {
		t.Errorf("Errors = %+v, want Kreatinin mismatch", s.Values.Errors)
	}
}

func TestScoreWithoutExpected(t *testing.T) {
	if s := Score("2024-03-15", nil, nil); s != nil {
		t.Errorf("Score() = %+v, want nil without ground truth", s)
	}
}

func TestScoreNoMatches(t *testing.T) {
	expected := &Expected{Metrics: []merge.Metric{{Name: "Glukoz", Value: 95}}}
	s := Score("", nil, expected)
	if s.Values.Accuracy != "N/A" {
		t.Errorf("Accuracy = %q, want N/A with no matched names", s.Values.Accuracy)
	}
	if s.Date.Match {
		t.Error("empty date must not match a set expected date")
	}
}
