package core

import (
	"strconv"
	"strings"
)

// EditResult reports what happened to a proposed edit.
type EditResult int

const (
	EditApplied EditResult = iota
	EditRejected
	EditUnknownField
)

// ApplyCourseEdit sets field on row to value unless the rules reject it.
//
// Credit and marks refuse a value whose numeric reading is negative; text that
// does not parse is kept as typed (it counts as zero at calculation time).
// The title accepts anything.
func ApplyCourseEdit(row CourseRow, field, value string) (CourseRow, EditResult) {
	switch field {
	case FieldTitle:
		row.Title = value
	case FieldCredit:
		if isNegative(value) {
			return row, EditRejected
		}
		row.Credit = value
	case FieldMarks:
		if isNegative(value) {
			return row, EditRejected
		}
		row.Marks = value
	default:
		return row, EditUnknownField
	}
	return row, EditApplied
}

// ApplySemesterEdit sets field on row to value unless the rules reject it.
//
// GPA refuses negative numbers. Credit must be a whole number of at least one;
// blank text is kept so the row can be filled in later, and submit catches it.
func ApplySemesterEdit(row SemesterRow, field, value string) (SemesterRow, EditResult) {
	switch field {
	case FieldGPA:
		if isNegative(value) {
			return row, EditRejected
		}
		row.GPA = value
	case FieldCredit:
		if !isSemesterCredit(value) {
			return row, EditRejected
		}
		row.Credit = value
	default:
		return row, EditUnknownField
	}
	return row, EditApplied
}

// isNegative reads value the way the aggregators do, so text like "-1x" that
// they would count as -1 is refused here.
func isNegative(value string) bool {
	return ParseLenient(value) < 0
}

func isSemesterCredit(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	n, err := strconv.Atoi(value)
	return err == nil && n >= 1
}
