// Package testutil provides fixtures shared by pipeline tests.
package testutil

import (
	"bytes"
	"fmt"
)

// MinimalPDF builds a valid PDF with the given number of empty US-Letter
// pages. Tests use it wherever the pipeline needs a real document but the
// page content is irrelevant.
func MinimalPDF(pageCount int) []byte {
	var buf bytes.Buffer

	// objects: 1 catalog, 2 page tree, 3 shared empty content stream,
	// 4..3+pageCount the pages.
	numObjs := 3 + pageCount
	offsets := make([]int, numObjs+1)

	addObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pageCount; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 4+i)
	}

	addObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	addObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount))
	addObj(3, "<< /Length 0 >>\nstream\nendstream")
	for i := 0; i < pageCount; i++ {
		addObj(4+i, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 3 0 R >>")
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", numObjs+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= numObjs; n++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[n], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", numObjs+1, xrefOffset)

	return buf.Bytes()
}
