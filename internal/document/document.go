// Package document wraps a PDF for the duration of one extraction run:
// page count, page geometry, and raster-dominance classification.
package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is an opaque handle to a multi-page report. It is owned by a
// single extraction run and must be released with Close when the run
// completes or fails.
type Document struct {
	dir       string // temp dir holding the backing file
	path      string // backing PDF file (pdftoppm needs a real path)
	pageCount int
	dims      []types.Dim

	// largestImageArea holds, per 0-based page index, the pixel area of the
	// largest embedded raster image. Populated once at Open; a failed
	// inventory pass leaves it empty, which classifies every page as vector.
	largestImageArea map[int]int64

	log *slog.Logger
}

// Open materializes the PDF bytes into a temp file and reads its page
// count, page dimensions and embedded image inventory.
func Open(data []byte, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF page count: %w", err)
	}

	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF page dimensions: %w", err)
	}

	dir, err := os.MkdirTemp("", "tahlil-doc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write PDF to temp file: %w", err)
	}

	d := &Document{
		dir:              dir,
		path:             path,
		pageCount:        pageCount,
		dims:             dims,
		largestImageArea: make(map[int]int64),
		log:              logger,
	}
	d.loadImageInventory(data)
	return d, nil
}

// loadImageInventory walks the document's embedded raster images and
// records the largest pixel area per page. Any failure here is absorbed:
// classification then defaults every page to vector, which is the safe,
// non-destructive path.
func (d *Document) loadImageInventory(data []byte) {
	infos, err := api.Images(bytes.NewReader(data), nil, nil)
	if err != nil {
		d.log.Warn("image inventory failed, treating all pages as vector", "error", err)
		return
	}
	for _, pageImages := range infos {
		for _, img := range pageImages {
			area := int64(img.Width) * int64(img.Height)
			idx := img.PageNr - 1
			if area > d.largestImageArea[idx] {
				d.largestImageArea[idx] = area
			}
		}
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Path returns the backing file path for rendering.
func (d *Document) Path() string {
	return d.path
}

// PageDim returns the page's media box size in points.
func (d *Document) PageDim(pageIndex int) (width, height float64) {
	if pageIndex < 0 || pageIndex >= len(d.dims) {
		return 0, 0
	}
	return d.dims[pageIndex].Width, d.dims[pageIndex].Height
}

// Close releases the backing file. The Document must not be used after.
func (d *Document) Close() error {
	if d.dir == "" {
		return nil
	}
	err := os.RemoveAll(d.dir)
	d.dir = ""
	return err
}
