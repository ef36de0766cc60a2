// Package merge combines per-fragment extraction results for a document
// into one deduplicated result set.
package merge

// Reading is one extracted test result, pre-projection.
type Reading struct {
	Value   float64  `json:"value"`
	Unit    *string  `json:"unit,omitempty"`
	Flag    *string  `json:"flag,omitempty"`
	RefLow  *float64 `json:"ref_low,omitempty"`
	RefHigh *float64 `json:"ref_high,omitempty"`
}

// completeness counts the optional fields a reading carries. Used to pick
// between duplicate readings from the two halves of a split page.
func (r Reading) completeness() int {
	n := 0
	if r.RefLow != nil {
		n++
	}
	if r.RefHigh != nil {
		n++
	}
	if r.Unit != nil && *r.Unit != "" {
		n++
	}
	return n
}

// FragmentResult is the parsed model response for one rendered fragment.
// A nil *FragmentResult means the fragment produced no usable output
// (the model call failed after retries, or returned unparseable content).
type FragmentResult struct {
	SampleDate string             `json:"sample_date,omitempty"`
	Tests      map[string]Reading `json:"tests"`
}

// Metric is the flattened output projection of one accepted test.
// The flag is intentionally dropped here: downstream consumers re-derive
// it from the value against the reference range.
type Metric struct {
	Name    string   `json:"name"`
	Value   float64  `json:"value"`
	Unit    *string  `json:"unit,omitempty"`
	RefLow  *float64 `json:"ref_low"`
	RefHigh *float64 `json:"ref_high"`
}
