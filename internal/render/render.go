// Package render rasterizes report pages into the image fragments sent to
// the vision model. Vector pages produce one fragment; image-dominant
// pages are rendered at higher resolution and split into top and bottom
// halves so dense scanned tables stay legible to the model.
package render

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sagliklab/tahlil/internal/document"
)

// Crop marks which part of a page a fragment covers.
type Crop string

const (
	CropNone   Crop = ""
	CropTop    Crop = "top"
	CropBottom Crop = "bottom"
)

// Detail is the interpretation fidelity requested from the model service.
type Detail string

const (
	DetailAuto Detail = "auto"
	DetailHigh Detail = "high"
)

// Fragment is one rendered bitmap to be sent to the model. Fragments are
// consumed immediately after rendering and never persisted.
type Fragment struct {
	PageIndex int
	Crop      Crop
	Detail    Detail
	PNG       []byte
}

// Label names the fragment for logs: "full", "top" or "bottom".
func (f Fragment) Label() string {
	if f.Crop == CropNone {
		return "full"
	}
	return string(f.Crop)
}

const baseDPI = 72.0

// Renderer rasterizes pages via pdftoppm (poppler-utils).
type Renderer struct {
	// VectorScale is the render multiplier for vector pages (2.5 = 180 DPI).
	VectorScale float64
	// MaxImageDim caps the longest output edge, in pixels, when rendering
	// an image-dominant page.
	MaxImageDim int
	Logger      *slog.Logger

	// rasterize produces the PNG for one page. Tests swap it out; the
	// default shells out to pdftoppm.
	rasterize func(pdfPath string, pageIndex int, scale float64) ([]byte, error)
}

// New creates a Renderer, applying defaults for zero fields.
func New(vectorScale float64, maxImageDim int, logger *slog.Logger) *Renderer {
	if vectorScale <= 0 {
		vectorScale = 2.5
	}
	if maxImageDim <= 0 {
		maxImageDim = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{VectorScale: vectorScale, MaxImageDim: maxImageDim, Logger: logger}
	r.rasterize = r.rasterizePage
	return r
}

// Render rasterizes one page according to its class. All native rendering
// state lives in a temp dir that is removed before returning, success or
// not, so only one page's raster data is ever live at a time.
func (r *Renderer) Render(doc *document.Document, pageIndex int, class document.PageClass) ([]Fragment, error) {
	scale := r.VectorScale
	detail := DetailAuto
	if class == document.ClassImageDominant {
		scale = r.imageScale(doc, pageIndex)
		detail = DetailHigh
	}

	png, err := r.rasterize(doc.Path(), pageIndex, scale)
	if err != nil {
		return nil, err
	}

	if class != document.ClassImageDominant {
		return []Fragment{{PageIndex: pageIndex, Crop: CropNone, Detail: detail, PNG: png}}, nil
	}

	top, bottom, err := splitHalves(png)
	if err != nil {
		// Degrade: send the whole page as one high-detail fragment rather
		// than failing the page.
		r.Logger.Warn("failed to split page bitmap, sending unsplit",
			"page", pageIndex+1, "error", err)
		return []Fragment{{PageIndex: pageIndex, Crop: CropNone, Detail: DetailHigh, PNG: png}}, nil
	}

	return []Fragment{
		{PageIndex: pageIndex, Crop: CropTop, Detail: DetailHigh, PNG: top},
		{PageIndex: pageIndex, Crop: CropBottom, Detail: DetailHigh, PNG: bottom},
	}, nil
}

// imageScale picks a multiplier that caps the longest rendered edge at
// MaxImageDim pixels, and never exceeds twice the vector scale.
func (r *Renderer) imageScale(doc *document.Document, pageIndex int) float64 {
	w, h := doc.PageDim(pageIndex)
	return r.scaleFor(math.Max(w, h))
}

// scaleFor computes the image-dominant scale for a page whose longest edge
// measures longestPts points (1 pt = 1 px at 1.0x).
func (r *Renderer) scaleFor(longestPts float64) float64 {
	maxScale := 2 * r.VectorScale
	if longestPts <= 0 {
		return maxScale
	}
	return math.Min(float64(r.MaxImageDim)/longestPts, maxScale)
}

// rasterizePage renders a single page to PNG using pdftoppm.
func (r *Renderer) rasterizePage(pdfPath string, pageIndex int, scale float64) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "tahlil-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// pdftoppm pages are 1-indexed. -r maps the scale multiplier onto DPI
	// (72 DPI = 1.0x).
	pageStr := fmt.Sprintf("%d", pageIndex+1)
	dpi := fmt.Sprintf("%d", int(math.Round(scale*baseDPI)))
	cmd := exec.Command("pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", dpi,
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}
