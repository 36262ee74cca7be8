package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
)

// View identifies one of the five screens.
type View int

const (
	ViewHome View = iota + 1
	ViewScheme
	ViewGPAForm
	ViewGPAResult
	ViewCGPA
)

var viewNames = map[View]string{
	ViewHome:      "home",
	ViewScheme:    "scheme",
	ViewGPAForm:   "gpa",
	ViewGPAResult: "gpa-result",
	ViewCGPA:      "cgpa",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ParseView maps a view name back to its View.
func ParseView(name string) (View, bool) {
	for v, n := range viewNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

var (
	ErrUnknownView = errors.New("unknown view")
	ErrRowIndex    = errors.New("row index out of range")
)

// SemesterStore is the subset of semesters.Store the calculator needs.
type SemesterStore interface {
	Load(ctx context.Context) []core.SemesterRow
	Rows() []core.SemesterRow
	Replace(ctx context.Context, rows []core.SemesterRow) error
	Append(ctx context.Context, row core.SemesterRow) error
	Clear(ctx context.Context, confirmed bool) error
}

var _ SemesterStore = (*semesters.Store)(nil)

// Snapshot is a read-only copy of the calculator state for rendering.
type Snapshot struct {
	View       View
	Courses    []core.CourseRow
	GPAResult  *core.GPAResult
	Semesters  []core.SemesterRow
	CGPAResult *core.CGPAResult
}

// Calculator is the single controller behind every screen. It owns the course
// rows and both results; the semester list lives in the store.
type Calculator struct {
	mu         sync.Mutex
	view       View
	courses    []core.CourseRow
	gpaResult  *core.GPAResult
	cgpaResult *core.CGPAResult
	store      SemesterStore
	logger     *log.Logger
}

// NewCalculator loads the semester list and starts on the home view.
func NewCalculator(ctx context.Context, store SemesterStore, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentCalculator})
	}
	rows := store.Load(ctx)
	logger.InfoContext(ctx, "Calculator ready", log.FieldSemesterCount, len(rows))
	return &Calculator{view: ViewHome, store: store, logger: logger}
}

// Snapshot returns a deep copy of the current state.
func (c *Calculator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Calculator) snapshot() Snapshot {
	s := Snapshot{
		View:      c.view,
		Courses:   append([]core.CourseRow{}, c.courses...),
		Semesters: c.store.Rows(),
	}
	if c.gpaResult != nil {
		r := *c.gpaResult
		r.Processed = append([]core.ProcessedCourse(nil), c.gpaResult.Processed...)
		s.GPAResult = &r
	}
	if c.cgpaResult != nil {
		r := *c.cgpaResult
		s.CGPAResult = &r
	}
	return s
}

// Navigate switches view. The GPA result view needs a computed result.
func (c *Calculator) Navigate(ctx context.Context, v View) error {
	if _, ok := viewNames[v]; !ok {
		return ErrUnknownView
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if v == ViewGPAResult && c.gpaResult == nil {
		return core.ErrNoResult
	}
	c.view = v
	c.logger.DebugContext(ctx, "View changed", log.FieldView, v.String())
	return nil
}

// AddCourse appends an empty course row.
func (c *Calculator) AddCourse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = append(c.courses, core.CourseRow{})
}

// EditCourse applies one field edit to course i (0-based).
func (c *Calculator) EditCourse(ctx context.Context, i int, field, value string) (core.EditResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.courses) {
		return core.EditRejected, ErrRowIndex
	}
	row, res := core.ApplyCourseEdit(c.courses[i], field, value)
	if res == core.EditRejected {
		c.logger.DebugContext(ctx, "Course edit rejected",
			log.FieldOperation, log.OpEdit, "field", field, "value", value)
	}
	c.courses[i] = row
	return res, nil
}

// SubmitGPA validates the course rows, computes the GPA and shows the result.
// An empty form computes to zero, as the aggregator defines it.
func (c *Calculator) SubmitGPA(ctx context.Context) (core.GPAResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.courses) > 0 {
		if err := core.ValidateCourses(c.courses); err != nil {
			return core.GPAResult{}, err
		}
	}
	r := core.ComputeGPA(c.courses)
	c.gpaResult = &r
	c.view = ViewGPAResult

	c.logger.InfoContext(ctx, "GPA calculated",
		log.FieldOperation, log.OpCalculate,
		log.FieldCourseCount, len(r.Processed),
		log.FieldTotalCredit, r.TotalCredit,
		log.FieldGPA, r.GPA)
	return r, nil
}

// ResetGPA discards the course rows and the GPA result and returns home.
func (c *Calculator) ResetGPA(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = nil
	c.gpaResult = nil
	c.view = ViewHome
	c.logger.DebugContext(ctx, "GPA session reset")
}

// Transfer appends the current GPA result to the semester list and moves to
// the CGPA view. Without a result it does nothing.
func (c *Calculator) Transfer(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gpaResult == nil {
		return nil
	}
	row := core.SemesterFromResult(*c.gpaResult)
	if err := c.store.Append(ctx, row); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	c.view = ViewCGPA

	log.NewStructuredLogger(c.logger).LogTransfer(ctx, c.gpaResult.GPA, c.gpaResult.TotalCredit, len(c.store.Rows()))
	return nil
}

// AddSemester appends an empty semester row and persists the list.
func (c *Calculator) AddSemester(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Append(ctx, core.SemesterRow{})
}

// EditSemester applies one field edit to semester i (0-based) and persists it.
func (c *Calculator) EditSemester(ctx context.Context, i int, field, value string) (core.EditResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.store.Rows()
	if i < 0 || i >= len(rows) {
		return core.EditRejected, ErrRowIndex
	}
	row, res := core.ApplySemesterEdit(rows[i], field, value)
	if res != core.EditApplied {
		return res, nil
	}
	rows[i] = row
	if err := c.store.Replace(ctx, rows); err != nil {
		return res, err
	}
	return res, nil
}

// SubmitCGPA validates the semester rows and computes the CGPA.
func (c *Calculator) SubmitCGPA(ctx context.Context) (core.CGPAResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.store.Rows()
	if len(rows) > 0 {
		if err := core.ValidateSemesters(rows); err != nil {
			return core.CGPAResult{}, err
		}
	}
	r := core.ComputeCGPA(rows)
	c.cgpaResult = &r

	c.logger.InfoContext(ctx, "CGPA calculated",
		log.FieldOperation, log.OpCalculate,
		log.FieldSemesterCount, len(rows),
		log.FieldTotalCredit, r.TotalCredits,
		log.FieldCGPA, r.CGPA)
	return r, nil
}

// ClearSemesters empties the stored list and drops any CGPA result.
func (c *Calculator) ClearSemesters(ctx context.Context, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx, confirmed); err != nil {
		return err
	}
	c.cgpaResult = nil
	return nil
}

// LeaveCGPA drops the CGPA result and returns home. The list is kept.
func (c *Calculator) LeaveCGPA(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cgpaResult = nil
	c.view = ViewHome
	c.logger.DebugContext(ctx, "Left CGPA view")
}

// Results returns the held results for export.
func (c *Calculator) Results() (*core.GPAResult, *core.CGPAResult) {
	s := c.Snapshot()
	return s.GPAResult, s.CGPAResult
}
