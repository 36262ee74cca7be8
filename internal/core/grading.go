package core

// MaxMarks is the top of the marks scale.
const MaxMarks = 100

// GradeBand maps a closed range of integer marks to a letter grade.
type GradeBand struct {
	Min   float64
	Max   float64
	Grade string
	Point float64
}

// GradeInfo is the letter grade and grade point for a mark.
type GradeInfo struct {
	Grade string
	Point float64
}

// Scheme is the grading table, highest band first. Resolve relies on the order.
var Scheme = []GradeBand{
	{Min: 85, Max: 100, Grade: "A", Point: 4},
	{Min: 80, Max: 84, Grade: "A-", Point: 3.67},
	{Min: 75, Max: 79, Grade: "B+", Point: 3.33},
	{Min: 71, Max: 74, Grade: "B", Point: 3},
	{Min: 68, Max: 70, Grade: "B-", Point: 2.67},
	{Min: 64, Max: 67, Grade: "C+", Point: 2.33},
	{Min: 60, Max: 63, Grade: "C", Point: 2},
	{Min: 57, Max: 59, Grade: "C-", Point: 1.67},
	{Min: 53, Max: 56, Grade: "D+", Point: 1.33},
	{Min: 50, Max: 52, Grade: "D", Point: 1},
	{Min: 0, Max: 49, Grade: "F", Point: 0},
}

// fallback is returned for marks no band covers.
var fallback = GradeInfo{Grade: "F", Point: 0}

// MaxPoint is the highest grade point a semester GPA can reach.
const MaxPoint = 4.0

// Covers reports whether marks falls in the band. Bands are declared on
// integer edges, so a band owns [Min, Max+1); the top band stops at MaxMarks.
func (b GradeBand) Covers(marks float64) bool {
	if b.Max >= MaxMarks {
		return marks >= b.Min && marks <= b.Max
	}
	return marks >= b.Min && marks < b.Max+1
}

// Resolve returns the grade for marks. The first covering band wins; marks
// outside [0, MaxMarks] (or NaN) get an F with zero points.
func Resolve(marks float64) GradeInfo {
	for _, b := range Scheme {
		if b.Covers(marks) {
			return GradeInfo{Grade: b.Grade, Point: b.Point}
		}
	}
	return fallback
}

// Range renders the band's mark range as shown in the grading table ("85 - 100").
func (b GradeBand) Range() string {
	return FormatNumber(b.Min) + " - " + FormatNumber(b.Max)
}
