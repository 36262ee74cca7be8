package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
	"gradecalc/internal/semesters/memory"
)

func newTestCalculator(t *testing.T, kv semesters.KV) *Calculator {
	t.Helper()
	logger := log.New(log.Config{Output: &bytes.Buffer{}, Component: log.ComponentCalculator})
	store := semesters.NewStore(kv, semesters.WithLogger(logger))
	return NewCalculator(context.Background(), store, logger)
}

func fillCourse(t *testing.T, c *Calculator, i int, title, credit, marks string) {
	t.Helper()
	ctx := context.Background()
	for field, value := range map[string]string{core.FieldTitle: title, core.FieldCredit: credit, core.FieldMarks: marks} {
		res, err := c.EditCourse(ctx, i, field, value)
		require.NoError(t, err)
		require.Equal(t, core.EditApplied, res)
	}
}

func TestCalculatorStartsHomeWithStoredSemesters(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, semesters.Key, `[{"gpa":"3.50","credit":15}]`))

	c := newTestCalculator(t, kv)
	s := c.Snapshot()
	assert.Equal(t, ViewHome, s.View)
	assert.Equal(t, []core.SemesterRow{{GPA: "3.50", Credit: "15"}}, s.Semesters)
	assert.Nil(t, s.GPAResult)
	assert.Nil(t, s.CGPAResult)
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())

	require.NoError(t, c.Navigate(ctx, ViewScheme))
	require.NoError(t, c.Navigate(ctx, ViewGPAForm))
	assert.ErrorIs(t, c.Navigate(ctx, ViewGPAResult), core.ErrNoResult)
	assert.ErrorIs(t, c.Navigate(ctx, View(42)), ErrUnknownView)
	assert.Equal(t, ViewGPAForm, c.Snapshot().View)
}

func TestParseView(t *testing.T) {
	for _, v := range []View{ViewHome, ViewScheme, ViewGPAForm, ViewGPAResult, ViewCGPA} {
		got, ok := ParseView(v.String())
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
	_, ok := ParseView("nope")
	assert.False(t, ok)
	assert.Equal(t, "view(9)", View(9).String())
}

func TestGPAFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())

	c.AddCourse()
	c.AddCourse()
	fillCourse(t, c, 0, "Maths", "3", "90")
	fillCourse(t, c, 1, "Physics", "2", "50")

	r, err := c.SubmitGPA(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.8, r.GPA, 1e-9)
	assert.Equal(t, 5.0, r.TotalCredit)

	s := c.Snapshot()
	assert.Equal(t, ViewGPAResult, s.View)
	require.NotNil(t, s.GPAResult)
	assert.Equal(t, "A", s.GPAResult.Processed[0].Grade)
	assert.Equal(t, 2, s.GPAResult.Processed[1].Index)
}

func TestEditCourseRejectsNegativeAndKeepsValue(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())
	c.AddCourse()
	fillCourse(t, c, 0, "Maths", "3", "70")

	res, err := c.EditCourse(ctx, 0, core.FieldMarks, "-5")
	require.NoError(t, err)
	assert.Equal(t, core.EditRejected, res)
	assert.Equal(t, "70", c.Snapshot().Courses[0].Marks)

	_, err = c.EditCourse(ctx, 3, core.FieldMarks, "1")
	assert.ErrorIs(t, err, ErrRowIndex)
	_, err = c.EditCourse(ctx, -1, core.FieldMarks, "1")
	assert.ErrorIs(t, err, ErrRowIndex)
}

func TestSubmitGPARequiresTitle(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())
	c.AddCourse()
	fillCourse(t, c, 0, "  ", "3", "70")

	_, err := c.SubmitGPA(ctx)
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	var rowErr *core.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Index)
	assert.Nil(t, c.Snapshot().GPAResult)
}

func TestSubmitGPAEmptyFormIsZero(t *testing.T) {
	c := newTestCalculator(t, memory.New())
	r, err := c.SubmitGPA(context.Background())
	require.NoError(t, err)
	assert.Zero(t, r.GPA)
	assert.Zero(t, r.TotalCredit)
}

func TestResetGPA(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())
	c.AddCourse()
	fillCourse(t, c, 0, "Maths", "3", "70")
	_, err := c.SubmitGPA(ctx)
	require.NoError(t, err)

	c.ResetGPA(ctx)
	s := c.Snapshot()
	assert.Equal(t, ViewHome, s.View)
	assert.Empty(t, s.Courses)
	assert.Nil(t, s.GPAResult)
}

func TestTransferWithoutResultIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	c := newTestCalculator(t, kv)

	require.NoError(t, c.Transfer(ctx))
	s := c.Snapshot()
	assert.Empty(t, s.Semesters)
	assert.Equal(t, ViewHome, s.View)
	_, ok, _ := kv.Get(ctx, semesters.Key)
	assert.False(t, ok)
}

func TestTransferAppendsRoundedRow(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	c := newTestCalculator(t, kv)

	c.AddCourse()
	fillCourse(t, c, 0, "Maths", "3", "72") // B, 3 points
	c.AddCourse()
	fillCourse(t, c, 1, "Art", "1", "45") // F 0
	first, err := c.SubmitGPA(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Transfer(ctx))

	s := c.Snapshot()
	assert.Equal(t, ViewCGPA, s.View)
	require.Len(t, s.Semesters, 1)
	assert.Equal(t, core.FormatFixed2(first.GPA), s.Semesters[0].GPA)
	assert.Equal(t, "2.25", s.Semesters[0].GPA)
	assert.Equal(t, "4", s.Semesters[0].Credit)

	// A second result appends without touching the first row.
	c.ResetGPA(ctx)
	c.AddCourse()
	fillCourse(t, c, 0, "Chem", "2", "88")
	_, err = c.SubmitGPA(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Transfer(ctx))

	s = c.Snapshot()
	require.Len(t, s.Semesters, 2)
	assert.Equal(t, core.SemesterRow{GPA: "2.25", Credit: "4"}, s.Semesters[0])
	assert.Equal(t, core.SemesterRow{GPA: "4.00", Credit: "2"}, s.Semesters[1])

	raw, ok, _ := kv.Get(ctx, semesters.Key)
	require.True(t, ok)
	assert.JSONEq(t, `[{"gpa":"2.25","credit":4},{"gpa":"4.00","credit":2}]`, raw)
}

func TestSemesterEditsPersist(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	c := newTestCalculator(t, kv)

	require.NoError(t, c.AddSemester(ctx))
	raw, ok, _ := kv.Get(ctx, semesters.Key)
	require.True(t, ok)
	assert.JSONEq(t, `[{"gpa":"","credit":""}]`, raw)

	res, err := c.EditSemester(ctx, 0, core.FieldGPA, "3.7")
	require.NoError(t, err)
	assert.Equal(t, core.EditApplied, res)
	res, err = c.EditSemester(ctx, 0, core.FieldCredit, "18")
	require.NoError(t, err)
	assert.Equal(t, core.EditApplied, res)

	res, err = c.EditSemester(ctx, 0, core.FieldCredit, "-2")
	require.NoError(t, err)
	assert.Equal(t, core.EditRejected, res)

	raw, _, _ = kv.Get(ctx, semesters.Key)
	assert.JSONEq(t, `[{"gpa":"3.7","credit":18}]`, raw)

	_, err = c.EditSemester(ctx, 5, core.FieldGPA, "1")
	assert.ErrorIs(t, err, ErrRowIndex)
}

func TestCGPAFlowAndClear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, semesters.Key, `[{"gpa":"3.5","credit":15},{"gpa":"3.0","credit":12}]`))
	c := newTestCalculator(t, kv)
	require.NoError(t, c.Navigate(ctx, ViewCGPA))

	r, err := c.SubmitCGPA(ctx)
	require.NoError(t, err)
	assert.InDelta(t, (3.5*15+3.0*12)/27, r.CGPA, 1e-9)
	assert.Equal(t, 27.0, r.TotalCredits)
	require.NotNil(t, c.Snapshot().CGPAResult)

	assert.ErrorIs(t, c.ClearSemesters(ctx, false), core.ErrClearNotConfirmed)
	assert.Len(t, c.Snapshot().Semesters, 2)
	assert.NotNil(t, c.Snapshot().CGPAResult)

	require.NoError(t, c.ClearSemesters(ctx, true))
	s := c.Snapshot()
	assert.Empty(t, s.Semesters)
	assert.Nil(t, s.CGPAResult)
	_, ok, _ := kv.Get(ctx, semesters.Key)
	assert.False(t, ok)

	// A fresh process sees the cleared list.
	assert.Empty(t, newTestCalculator(t, kv).Snapshot().Semesters)
}

func TestSubmitCGPARequiresFields(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())
	require.NoError(t, c.AddSemester(ctx))

	_, err := c.SubmitCGPA(ctx)
	assert.ErrorIs(t, err, core.ErrEmptyGPA)
	assert.Nil(t, c.Snapshot().CGPAResult)
}

func TestLeaveCGPAKeepsList(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, semesters.Key, `[{"gpa":"2.0","credit":3}]`))
	c := newTestCalculator(t, kv)
	_, err := c.SubmitCGPA(ctx)
	require.NoError(t, err)

	c.LeaveCGPA(ctx)
	s := c.Snapshot()
	assert.Equal(t, ViewHome, s.View)
	assert.Nil(t, s.CGPAResult)
	assert.Len(t, s.Semesters, 1)
}

func TestSnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	c := newTestCalculator(t, memory.New())
	c.AddCourse()
	fillCourse(t, c, 0, "Maths", "3", "70")
	_, err := c.SubmitGPA(ctx)
	require.NoError(t, err)

	s := c.Snapshot()
	s.Courses[0].Title = "changed"
	s.GPAResult.Processed[0].Grade = "Z"

	again := c.Snapshot()
	assert.Equal(t, "Maths", again.Courses[0].Title)
	assert.NotEqual(t, "Z", again.GPAResult.Processed[0].Grade)

	gpa, cgpa := c.Results()
	assert.NotNil(t, gpa)
	assert.Nil(t, cgpa)
}
