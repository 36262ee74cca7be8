package core

// ComputeGPA grades every row and returns the credit-weighted average.
//
// Credit and marks are read with ParseLenient, so blank or garbled text counts
// as zero. Without positive total credit the GPA is 0 rather than NaN. Output rows keep
// input order.
func ComputeGPA(rows []CourseRow) GPAResult {
	res := GPAResult{Processed: make([]ProcessedCourse, 0, len(rows))}
	for i, r := range rows {
		credit := ParseLenient(r.Credit)
		marks := ParseLenient(r.Marks)
		g := Resolve(marks)
		pc := ProcessedCourse{
			Title:         r.Title,
			Credit:        credit,
			Marks:         marks,
			Grade:         g.Grade,
			Point:         g.Point,
			WeightedPoint: credit * g.Point,
			Index:         i + 1,
		}
		res.Processed = append(res.Processed, pc)
		res.TotalCredit += credit
		res.TotalWeightedPoint += pc.WeightedPoint
	}
	if res.TotalCredit > 0 {
		res.GPA = res.TotalWeightedPoint / res.TotalCredit
	}
	return res
}
