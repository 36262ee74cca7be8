package core

import (
	"errors"
	"strings"
)

// Field names accepted by the entry validation rules.
const (
	FieldTitle  = "title"
	FieldCredit = "credit"
	FieldMarks  = "marks"
	FieldGPA    = "gpa"
)

type (
	// CourseRow is a course as typed into the GPA form. Numeric fields keep
	// the raw text so a half-typed value survives between edits.
	CourseRow struct {
		Title  string
		Credit string
		Marks  string
	}

	// ProcessedCourse is a CourseRow after grading.
	ProcessedCourse struct {
		Title         string
		Credit        float64
		Marks         float64
		Grade         string
		Point         float64
		WeightedPoint float64
		Index         int // 1-based input position
	}

	// GPAResult is the outcome of one GPA computation.
	GPAResult struct {
		Processed          []ProcessedCourse
		TotalCredit        float64
		TotalWeightedPoint float64
		GPA                float64
	}

	// SemesterRow is one entry of the stored semester list.
	SemesterRow struct {
		GPA    string
		Credit string
	}

	// CGPAResult is the outcome of one CGPA computation.
	CGPAResult struct {
		CGPA         float64
		TotalCredits float64
	}
)

var (
	ErrEmptyTitle        = errors.New("empty course title")
	ErrTitleTooLong      = errors.New("course title too long (max 200 characters)")
	ErrEmptyCredit       = errors.New("empty credit")
	ErrEmptyMarks        = errors.New("empty marks")
	ErrEmptyGPA          = errors.New("empty gpa")
	ErrGPAOutOfRange     = errors.New("gpa above the top grade point")
	ErrNoCourses         = errors.New("no courses to calculate")
	ErrNoSemesters       = errors.New("no semesters to calculate")
	ErrNoResult          = errors.New("no result available")
	ErrClearNotConfirmed = errors.New("clear requires confirmation")
)

// Validate checks the row is complete enough to be submitted.
func (c CourseRow) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if len(c.Title) > 200 {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(c.Credit) == "" {
		return ErrEmptyCredit
	}
	if strings.TrimSpace(c.Marks) == "" {
		return ErrEmptyMarks
	}
	return nil
}

// Validate checks the row is complete enough to be submitted.
func (s SemesterRow) Validate() error {
	if strings.TrimSpace(s.GPA) == "" {
		return ErrEmptyGPA
	}
	if ParseLenient(s.GPA) > MaxPoint {
		return ErrGPAOutOfRange
	}
	if strings.TrimSpace(s.Credit) == "" {
		return ErrEmptyCredit
	}
	return nil
}

// ValidateCourses validates every row and reports the first failing position (1-based).
func ValidateCourses(rows []CourseRow) error {
	if len(rows) == 0 {
		return ErrNoCourses
	}
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return &RowError{Index: i + 1, Err: err}
		}
	}
	return nil
}

// ValidateSemesters validates every row and reports the first failing position (1-based).
func ValidateSemesters(rows []SemesterRow) error {
	if len(rows) == 0 {
		return ErrNoSemesters
	}
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return &RowError{Index: i + 1, Err: err}
		}
	}
	return nil
}

// RowError ties a validation failure to a row position.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return "row " + FormatNumber(float64(e.Index)) + ": " + e.Err.Error()
}

func (e *RowError) Unwrap() error { return e.Err }
