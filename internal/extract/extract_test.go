package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"testing"

	"github.com/sagliklab/tahlil/internal/merge"
	"github.com/sagliklab/tahlil/internal/render"
	"github.com/sagliklab/tahlil/internal/testutil"
)

// fakeClient scripts per-page fragment outcomes. Fragments within a page
// are invoked concurrently, so the call counter is atomic.
type fakeClient struct {
	// byPage returns the outcome for a fragment; nil FragmentResult with
	// nil error models an unparseable fragment, err models a hard failure.
	byPage func(frag render.Fragment) (*merge.FragmentResult, error)
	calls  atomic.Int32
}

func (f *fakeClient) Invoke(_ context.Context, frag render.Fragment) (*merge.FragmentResult, error) {
	f.calls.Add(1)
	if f.byPage == nil {
		return nil, nil
	}
	return f.byPage(frag)
}

func requireFatal(t *testing.T, err error, reason Reason) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want fatal %s", reason)
	}
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v (%T), want *FatalError", err, err)
	}
	if fe.Reason != reason {
		t.Errorf("reason = %s, want %s", fe.Reason, reason)
	}
}

func TestRunFailsFastWithoutCredentials(t *testing.T) {
	_, err := Run(context.Background(), Request{PDF: testutil.MinimalPDF(1)})
	requireFatal(t, err, ReasonMissingCredentials)
}

func TestRunRejectsBadDocument(t *testing.T) {
	_, err := Run(context.Background(), Request{
		PDF:    []byte("not a pdf"),
		Client: &fakeClient{},
	})
	requireFatal(t, err, ReasonBadDocument)
}

func TestRunFailsOnZeroPages(t *testing.T) {
	_, err := Run(context.Background(), Request{
		PDF:    testutil.MinimalPDF(0),
		Client: &fakeClient{},
	})
	requireFatal(t, err, ReasonNoPages)
}

func TestRunReportsNothingExtracted(t *testing.T) {
	// Every fragment settles with no result: the document must fail with a
	// distinct reason, not succeed empty.
	client := &fakeClient{}
	_, err := Run(context.Background(), Request{
		PDF:    testutil.MinimalPDF(2),
		Client: client,
	})
	requireFatal(t, err, ReasonNothingExtracted)
}

func TestRunMergesAcrossPages(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	client := &fakeClient{
		byPage: func(frag render.Fragment) (*merge.FragmentResult, error) {
			switch frag.PageIndex {
			case 0:
				return &merge.FragmentResult{
					SampleDate: "2024-03-15",
					Tests: map[string]merge.Reading{
						"Glukoz": {Value: 95},
					},
				}, nil
			default:
				// Later page re-states Glukoz with a different value and
				// adds a new test.
				return &merge.FragmentResult{
					SampleDate: "2024-03-20",
					Tests: map[string]merge.Reading{
						"Glukoz": {Value: 950},
						"TSH":    {Value: 2.1},
					},
				}, nil
			}
		},
	}

	result, err := Run(context.Background(), Request{
		PDF:    testutil.MinimalPDF(2),
		Client: client,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", result.PageCount)
	}
	if result.SampleDate != "2024-03-15" {
		t.Errorf("SampleDate = %q, want first page's date", result.SampleDate)
	}
	if len(result.Metrics) != 2 {
		t.Fatalf("Metrics len = %d, want 2", len(result.Metrics))
	}
	for _, m := range result.Metrics {
		if m.Name == "Glukoz" && m.Value != 95 {
			t.Errorf("Glukoz = %v, want first page's 95", m.Value)
		}
	}
}

func TestRunSurvivesFailedFragments(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	client := &fakeClient{
		byPage: func(frag render.Fragment) (*merge.FragmentResult, error) {
			if frag.PageIndex == 0 {
				return nil, fmt.Errorf("model service error (status 503)")
			}
			return &merge.FragmentResult{
				Tests: map[string]merge.Reading{"Kreatinin": {Value: 0.9}},
			}, nil
		},
	}

	result, err := Run(context.Background(), Request{
		PDF:    testutil.MinimalPDF(2),
		Client: client,
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want page 2's results despite page 1 failing", err)
	}
	if len(result.Metrics) != 1 || result.Metrics[0].Name != "Kreatinin" {
		t.Errorf("Metrics = %+v, want just Kreatinin", result.Metrics)
	}
}

func TestInvokeAllIsAllSettled(t *testing.T) {
	frags := []render.Fragment{
		{PageIndex: 3, Crop: render.CropTop, Detail: render.DetailHigh},
		{PageIndex: 3, Crop: render.CropBottom, Detail: render.DetailHigh},
	}

	client := &fakeClient{
		byPage: func(frag render.Fragment) (*merge.FragmentResult, error) {
			if frag.Crop == render.CropTop {
				return nil, fmt.Errorf("boom")
			}
			return &merge.FragmentResult{
				Tests: map[string]merge.Reading{"Demir": {Value: 40}},
			}, nil
		},
	}

	results := invokeAll(context.Background(), client, frags, slog.Default())
	if len(results) != 2 {
		t.Fatalf("results len = %d, want 2", len(results))
	}
	if results[0] != nil {
		t.Error("failed fragment should settle as nil")
	}
	if results[1] == nil {
		t.Fatal("sibling fragment lost to the failed one")
	}
	if _, ok := results[1].Tests["Demir"]; !ok {
		t.Error("bottom fragment's reading missing")
	}
	if n := client.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}
