// Package eval runs the extraction pipeline over curated test cases and
// scores the output against expected results.
package eval

import (
	"fmt"
	"sort"

	"github.com/sagliklab/tahlil/internal/merge"
)

// Expected is the hand-verified ground truth for one test case.
type Expected struct {
	SampleDate string         `json:"sample_date"`
	Metrics    []merge.Metric `json:"metrics"`
}

// DateScore compares the extracted sample date against the expected one.
type DateScore struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Match    bool   `json:"match"`
}

// NameScore summarizes test-name coverage.
type NameScore struct {
	Expected     int      `json:"expected"`
	Extracted    int      `json:"extracted"`
	Matched      int      `json:"matched"`
	Missed       []string `json:"missed,omitempty"`
	Hallucinated []string `json:"hallucinated,omitempty"`
}

// ValueError is one matched name whose value disagrees.
type ValueError struct {
	Name     string  `json:"name"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

// ValueScore summarizes value agreement over matched names.
type ValueScore struct {
	Correct  int          `json:"correct"`
	Wrong    int          `json:"wrong"`
	Accuracy string       `json:"accuracy"`
	Errors   []ValueError `json:"errors,omitempty"`
}

// Scores is the full comparison for one case.
type Scores struct {
	Date    DateScore  `json:"date"`
	Metrics NameScore  `json:"metrics"`
	Values  ValueScore `json:"values"`
}

// Score compares an extraction output against expected ground truth.
func Score(sampleDate string, metrics []merge.Metric, expected *Expected) *Scores {
	if expected == nil {
		return nil
	}

	expMap := make(map[string]merge.Metric, len(expected.Metrics))
	for _, m := range expected.Metrics {
		expMap[m.Name] = m
	}
	actMap := make(map[string]merge.Metric, len(metrics))
	for _, m := range metrics {
		actMap[m.Name] = m
	}

	var matched, missed, hallucinated []string
	for name := range expMap {
		if _, ok := actMap[name]; ok {
			matched = append(matched, name)
		} else {
			missed = append(missed, name)
		}
	}
	for name := range actMap {
		if _, ok := expMap[name]; !ok {
			hallucinated = append(hallucinated, name)
		}
	}
	sort.Strings(matched)
	sort.Strings(missed)
	sort.Strings(hallucinated)

	values := ValueScore{Accuracy: "N/A"}
	for _, name := range matched {
		if actMap[name].Value == expMap[name].Value {
			values.Correct++
		} else {
			values.Wrong++
			values.Errors = append(values.Errors, ValueError{
				Name:     name,
				Expected: expMap[name].Value,
				Actual:   actMap[name].Value,
			})
		}
	}
	if len(matched) > 0 {
		values.Accuracy = fmt.Sprintf("%.1f%%", float64(values.Correct)/float64(len(matched))*100)
	}

	return &Scores{
		Date: DateScore{
			Expected: expected.SampleDate,
			Actual:   sampleDate,
			Match:    sampleDate == expected.SampleDate,
		},
		Metrics: NameScore{
			Expected:     len(expMap),
			Extracted:    len(actMap),
			Matched:      len(matched),
			Missed:       missed,
			Hallucinated: hallucinated,
		},
		Values: values,
	}
}
