package http

import (
	"errors"
	"strconv"
	"strings"

	"gradecalc/internal/core"
	"gradecalc/internal/services"
)

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

type schemeRow struct {
	Range  string
	Grade  string
	Points string
}

type courseView struct {
	Index  int
	Number int
	Title  string
	Credit string
	Marks  string
}

type processedView struct {
	Number int
	Title  string
	Credit string
	Marks  string
	Grade  string
	Points string
}

type gpaView struct {
	GPA         string
	TotalCredit string
	Courses     []processedView
}

type semesterView struct {
	Index  int
	Label  string
	GPA    string
	Credit string
}

type cgpaView struct {
	CGPA         string
	TotalCredits string
}

// pageData is what every template receives.
type pageData struct {
	View      string
	Scheme    []schemeRow
	Courses   []courseView
	GPA       *gpaView
	Semesters []semesterView
	CGPA      *cgpaView
}

var schemeRows = func() []schemeRow {
	rows := make([]schemeRow, 0, len(core.Scheme))
	for _, b := range core.Scheme {
		rows = append(rows, schemeRow{Range: b.Range(), Grade: b.Grade, Points: core.FormatFixed2(b.Point)})
	}
	return rows
}()

func newPageData(s services.Snapshot) pageData {
	d := pageData{View: s.View.String(), Scheme: schemeRows}

	for i, c := range s.Courses {
		d.Courses = append(d.Courses, courseView{
			Index: i, Number: i + 1,
			Title: c.Title, Credit: c.Credit, Marks: c.Marks,
		})
	}

	if r := s.GPAResult; r != nil {
		g := &gpaView{GPA: core.FormatFixed2(r.GPA), TotalCredit: core.FormatNumber(r.TotalCredit)}
		for _, p := range r.Processed {
			g.Courses = append(g.Courses, processedView{
				Number: p.Index,
				Title:  p.Title,
				Credit: core.FormatNumber(p.Credit),
				Marks:  core.FormatNumber(p.Marks),
				Grade:  p.Grade,
				Points: core.FormatFixed2(p.Point),
			})
		}
		d.GPA = g
	}

	for i, row := range s.Semesters {
		d.Semesters = append(d.Semesters, semesterView{
			Index: i, Label: "Sem " + strconv.Itoa(i+1),
			GPA: row.GPA, Credit: row.Credit,
		})
	}

	if r := s.CGPAResult; r != nil {
		d.CGPA = &cgpaView{CGPA: core.FormatFixed2(r.CGPA), TotalCredits: core.FormatNumber(r.TotalCredits)}
	}
	return d
}

// validationMessage phrases a submit failure for the error area.
func validationMessage(err error, rowNoun string) string {
	var rowErr *core.RowError
	prefix := ""
	if errors.As(err, &rowErr) {
		prefix = rowNoun + " " + strconv.Itoa(rowErr.Index) + ": "
	}
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return prefix + "Please enter a course title."
	case errors.Is(err, core.ErrTitleTooLong):
		return prefix + "Course title must be at most 200 characters."
	case errors.Is(err, core.ErrEmptyCredit):
		return prefix + "Please enter the credit."
	case errors.Is(err, core.ErrEmptyMarks):
		return prefix + "Please enter the marks."
	case errors.Is(err, core.ErrEmptyGPA):
		return prefix + "Please enter the GPA."
	case errors.Is(err, core.ErrGPAOutOfRange):
		return prefix + "GPA cannot be more than " + core.FormatFixed2(core.MaxPoint) + "."
	default:
		return err.Error()
	}
}

// isValidationError reports whether err came from entry validation.
func isValidationError(err error) bool {
	var rowErr *core.RowError
	return errors.As(err, &rowErr) ||
		errors.Is(err, core.ErrNoCourses) ||
		errors.Is(err, core.ErrNoSemesters)
}
