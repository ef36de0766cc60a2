package vision

import (
	"encoding/json"
	"log/slog"

	"github.com/sagliklab/tahlil/internal/merge"
)

// rawResult mirrors the model's output contract before per-entry
// validation. Test entries stay raw so one malformed entry cannot poison
// its siblings.
type rawResult struct {
	SampleDate *string                    `json:"sample_date"`
	Tests      map[string]json.RawMessage `json:"tests"`
}

type rawReading struct {
	Value   json.RawMessage `json:"value"`
	Unit    *string         `json:"unit"`
	Flag    *string         `json:"flag"`
	RefLow  *float64        `json:"ref_low"`
	RefHigh *float64        `json:"ref_high"`
}

// parseResult turns the model's JSON payload into a FragmentResult.
// Readings whose value is not numeric are dropped here, before the merge
// engine ever sees them (models occasionally hallucinate textual values
// like "abnormal"). Returns nil if the payload itself is not valid JSON.
func parseResult(content string, log *slog.Logger) *merge.FragmentResult {
	payload := json.RawMessage(content)
	if err := validatePayload(payload); err != nil {
		log.Warn("unparseable fragment payload", "error", err)
		return nil
	}

	var raw rawResult
	if err := json.Unmarshal(payload, &raw); err != nil {
		log.Warn("failed to decode fragment payload", "error", err)
		return nil
	}

	fr := &merge.FragmentResult{Tests: make(map[string]merge.Reading, len(raw.Tests))}
	if raw.SampleDate != nil {
		fr.SampleDate = *raw.SampleDate
	}

	for name, entry := range raw.Tests {
		var r rawReading
		if err := json.Unmarshal(entry, &r); err != nil {
			log.Debug("dropping malformed test entry", "name", name, "error", err)
			continue
		}
		var value float64
		if err := json.Unmarshal(r.Value, &value); err != nil {
			log.Debug("dropping non-numeric test value", "name", name)
			continue
		}
		fr.Tests[name] = merge.Reading{
			Value:   value,
			Unit:    r.Unit,
			Flag:    r.Flag,
			RefLow:  r.RefLow,
			RefHigh: r.RefHigh,
		}
	}
	return fr
}
