// Package export turns document text into deliverables: a PDF file, an email
// carrying that PDF, or an archived copy in object storage.
package export

import (
	"bytes"
	"regexp"

	"github.com/go-pdf/fpdf"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
)

const (
	marginX       = 72.0
	marginY       = 50.0
	titleFontSize = 18.0
	bodyFontSize  = 12.0
	lineGap       = 5.0
	defaultTitle  = "Generated Document"
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename derives the attachment name for a document title.
func Filename(title string) string {
	if title == "" {
		return "document.pdf"
	}
	return unsafeFilename.ReplaceAllString(title, "_") + ".pdf"
}

// Renderer lays out plain text on Letter pages.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render returns the complete PDF. The bytes are only returned once the writer
// has emitted the trailer, so callers never see a truncated file.
func (r *Renderer) Render(content, title string) ([]byte, error) {
	data, err := r.render(content, title)
	metrics.Exports.WithLabelValues("pdf", metrics.Outcome(err)).Inc()
	return data, err
}

func (r *Renderer) render(content, title string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	info := title
	if info == "" {
		info = defaultTitle
	}
	pdf.SetTitle(info, true)
	pdf.SetCreator("paperfix", true)

	// core fonts are cp1252; this maps the common UTF-8 punctuation onto it
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", titleFontSize)
		pdf.MultiCell(0, titleFontSize+lineGap, tr(title), "", "C", false)
		pdf.Ln(bodyFontSize + lineGap)
	}

	pdf.SetFont("Helvetica", "", bodyFontSize)
	pdf.MultiCell(0, bodyFontSize+lineGap, tr(content), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errs.Export("failed to generate PDF", err)
	}
	return buf.Bytes(), nil
}
