package merge

import (
	"log/slog"
	"sort"
)

// Result accumulates fragment results for one document. It must be fed in
// strict page-index order; within a page, fold fragments top half first.
// The first page to report a given test name owns it for the rest of the
// document — later pages re-stating the same name (a common hallucination
// on footer/summary pages) are discarded.
type Result struct {
	sampleDate string
	tests      map[string]Reading

	// sourcePage records which page first claimed each test name. It is
	// only consulted to decide whether a duplicate name is the other half
	// of the same split page (reconcile) or a later page (discard).
	sourcePage map[string]int

	log *slog.Logger
}

// NewResult creates an empty accumulator.
func NewResult(logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	return &Result{
		tests:      make(map[string]Reading),
		sourcePage: make(map[string]int),
		log:        logger,
	}
}

// Fold merges one fragment's outcome into the result. A nil fragment result
// contributes nothing. Readings with flags outside {H, L, N} have the flag
// cleared; readings whose name repeats inside a single fragment's JSON were
// already collapsed by decode order before Fold sees them.
func (m *Result) Fold(pageIndex int, fr *FragmentResult) {
	if fr == nil {
		return
	}

	accepted := 0
	for _, name := range sortedNames(fr.Tests) {
		r := fr.Tests[name]
		r.Flag = NormalizeFlag(r.Flag)

		existing, seen := m.tests[name]
		switch {
		case !seen:
			m.tests[name] = r
			m.sourcePage[name] = pageIndex
			accepted++
		case m.sourcePage[name] == pageIndex:
			// Other half of the same split page: keep whichever reading
			// carries more of {unit, ref_low, ref_high}.
			if r.completeness() > existing.completeness() {
				m.tests[name] = r
				accepted++
			}
		default:
			// Claimed by an earlier page: first-writer-wins.
			m.log.Debug("discarding duplicate test from later page",
				"name", name, "page", pageIndex+1, "owner_page", m.sourcePage[name]+1)
		}
	}

	if m.sampleDate == "" && ValidISODate(fr.SampleDate) {
		m.sampleDate = fr.SampleDate
	}

	if len(fr.Tests) > 0 {
		m.log.Debug("folded fragment", "page", pageIndex+1, "accepted", accepted, "reported", len(fr.Tests))
	}
}

// SampleDate returns the adopted sample date, or "" if none was seen.
func (m *Result) SampleDate() string {
	return m.sampleDate
}

// Len returns the number of accepted tests.
func (m *Result) Len() int {
	return len(m.tests)
}

// Test returns the accepted reading for name.
func (m *Result) Test(name string) (Reading, bool) {
	r, ok := m.tests[name]
	return r, ok
}

// Metrics flattens the accepted tests into the output projection, sorted
// by name so output for the same document is stable across runs.
func (m *Result) Metrics() []Metric {
	out := make([]Metric, 0, len(m.tests))
	for _, name := range sortedNames(m.tests) {
		r := m.tests[name]
		out = append(out, Metric{
			Name:    name,
			Value:   r.Value,
			Unit:    r.Unit,
			RefLow:  r.RefLow,
			RefHigh: r.RefHigh,
		})
	}
	return out
}

// sortedNames gives Fold a deterministic iteration order so repeated runs
// over identical fragment data produce identical accept/discard logs.
func sortedNames(tests map[string]Reading) []string {
	names := make([]string, 0, len(tests))
	for n := range tests {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
