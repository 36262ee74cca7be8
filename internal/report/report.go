// Package report renders GPA and CGPA results as a one-column PDF.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
)

// Kind names the report, and the file it is saved as.
type Kind string

const (
	KindGPA  Kind = "GPA"
	KindCGPA Kind = "CGPA"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageHeight   = 297.0
	bottomMargin = 20.0
	topMargin    = 20.0
	leftMargin   = 20.0
	lineSpacing  = 10.0
	titleSize    = 20.0
	bodySize     = 12.0
	courseStartY = 80.0
)

// Title heads every report.
const Title = "Academic Report"

// Line is one positioned piece of text.
type Line struct {
	Page int // 1-based
	X, Y float64
	Size float64
	Text string
}

// FileName returns the download name for a report kind.
func FileName(k Kind) string {
	return string(k) + "_Result.pdf"
}

func header() []Line {
	return []Line{{Page: 1, X: leftMargin, Y: topMargin, Size: titleSize, Text: Title}}
}

// GPALines lays out a GPA report: summary lines then one line per course.
func GPALines(r core.GPAResult) []Line {
	lines := append(header(),
		Line{Page: 1, X: leftMargin, Y: 40, Size: bodySize, Text: "Session GPA: " + core.FormatFixed2(r.GPA)},
		Line{Page: 1, X: leftMargin, Y: 50, Size: bodySize, Text: "Total Credits: " + core.FormatNumber(r.TotalCredit)},
		Line{Page: 1, X: leftMargin, Y: 70, Size: bodySize, Text: "Course Breakdown:"},
	)

	page, y := 1, courseStartY
	for i, c := range r.Processed {
		if y > pageHeight-bottomMargin {
			page++
			y = topMargin
		}
		lines = append(lines, Line{
			Page: page,
			X:    leftMargin,
			Y:    y,
			Size: bodySize,
			Text: fmt.Sprintf("%d. %s - Grade: %s (%s)", i+1, c.Title, c.Grade, core.FormatNumber(c.Marks)),
		})
		y += lineSpacing
	}
	return lines
}

// CGPALines lays out a CGPA report.
func CGPALines(r core.CGPAResult, semesters int) []Line {
	return append(header(),
		Line{Page: 1, X: leftMargin, Y: 40, Size: bodySize, Text: "Cumulative GPA (CGPA): " + core.FormatFixed2(r.CGPA)},
		Line{Page: 1, X: leftMargin, Y: 50, Size: bodySize, Text: fmt.Sprintf("Total Semesters: %d", semesters)},
		Line{Page: 1, X: leftMargin, Y: 60, Size: bodySize, Text: "Total Credits: " + core.FormatNumber(r.TotalCredits)},
	)
}

// Pages returns the number of pages lines span.
func Pages(lines []Line) int {
	n := 0
	for _, l := range lines {
		if l.Page > n {
			n = l.Page
		}
	}
	return n
}

// Render writes lines as a PDF document to w.
func Render(w io.Writer, lines []Line) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, bottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := 0
	for _, l := range lines {
		for page < l.Page {
			pdf.AddPage()
			page++
		}
		pdf.SetFont("Helvetica", "", l.Size)
		pdf.Text(l.X, l.Y, tr(l.Text))
	}
	if page == 0 {
		pdf.AddPage()
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Exporter renders results and logs each export.
type Exporter struct {
	logger *log.Logger
}

func NewExporter(logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentReport})
	}
	return &Exporter{logger: logger}
}

// GPA writes the GPA report for r.
func (e *Exporter) GPA(ctx context.Context, w io.Writer, r core.GPAResult) error {
	return e.export(ctx, w, KindGPA, GPALines(r))
}

// CGPA writes the CGPA report for r over the given number of semesters.
func (e *Exporter) CGPA(ctx context.Context, w io.Writer, r core.CGPAResult, semesters int) error {
	return e.export(ctx, w, KindCGPA, CGPALines(r, semesters))
}

func (e *Exporter) export(ctx context.Context, w io.Writer, kind Kind, lines []Line) error {
	if err := Render(w, lines); err != nil {
		e.logger.ErrorContext(ctx, "Report export failed",
			log.FieldOperation, log.OpExport,
			log.FieldReportKind, string(kind),
			log.FieldError, err)
		return err
	}
	e.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldReportKind, string(kind),
		"pages", Pages(lines))
	return nil
}
