package core

// ComputeCGPA returns the credit-weighted average of the semester GPAs.
// Parsing follows ComputeGPA; a non-positive credit total yields a CGPA of 0.
func ComputeCGPA(rows []SemesterRow) CGPAResult {
	var res CGPAResult
	var weighted float64
	for _, r := range rows {
		gpa := ParseLenient(r.GPA)
		credit := ParseLenient(r.Credit)
		res.TotalCredits += credit
		weighted += gpa * credit
	}
	if res.TotalCredits > 0 {
		res.CGPA = weighted / res.TotalCredits
	}
	return res
}

// SemesterFromResult builds the semester row recorded when a GPA result is
// carried over: the GPA rounded to two decimals, the credit as computed.
func SemesterFromResult(r GPAResult) SemesterRow {
	return SemesterRow{
		GPA:    FormatFixed2(r.GPA),
		Credit: FormatNumber(r.TotalCredit),
	}
}
