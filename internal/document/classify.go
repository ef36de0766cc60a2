package document

// PageClass describes how a page should be rendered for extraction.
type PageClass int

const (
	// ClassVector is a text/vector page, rendered once at a fixed scale.
	ClassVector PageClass = iota
	// ClassImageDominant is a page whose content is effectively one large
	// embedded photograph or scan. Rendered high-detail and split in half.
	ClassImageDominant
)

// String implements fmt.Stringer.
func (c PageClass) String() string {
	if c == ClassImageDominant {
		return "image-dominant"
	}
	return "vector"
}

// Classify decides whether a page is dominated by a single large embedded
// raster image. The decision is a pure function of the image inventory
// captured at Open, so repeated calls for the same page always agree.
// Pages whose resources could not be introspected classify as vector.
func (d *Document) Classify(pageIndex int, pixelThreshold int64) PageClass {
	if d.largestImageArea[pageIndex] > pixelThreshold {
		return ClassImageDominant
	}
	return ClassVector
}
