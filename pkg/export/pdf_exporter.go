package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders markdown-formatted agreement text into a printable PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderDocument lays out a title line followed by the document body.
// Paragraphs are expected double-newline separated; markdown heading and
// emphasis markers are stripped rather than typeset.
func (e *PDFExporter) RenderDocument(title, body string) ([]byte, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("pdf requires a non-empty body")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Times", "B", 14)
		pdf.MultiCell(0, 8, strings.ToUpper(title), "", "C", false)
		pdf.Ln(4)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if heading, ok := stripHeading(paragraph); ok {
			pdf.SetFont("Times", "B", 12)
			pdf.MultiCell(0, 6, tr(heading), "", "L", false)
			pdf.Ln(2)
			continue
		}
		pdf.SetFont("Times", "", 11)
		pdf.MultiCell(0, 6, tr(stripEmphasis(paragraph)), "", "J", false)
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func stripHeading(paragraph string) (string, bool) {
	if !strings.HasPrefix(paragraph, "#") {
		return "", false
	}
	if strings.Contains(paragraph, "\n") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(paragraph, "# ")), true
}

func stripEmphasis(text string) string {
	replacer := strings.NewReplacer("**", "", "__", "", "*", "", "_", "")
	return replacer.Replace(text)
}
