package jobs

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/domain"
)

// ReportPeriod is the trailing window covered by the billing report.
const ReportPeriod = 30 * 24 * time.Hour

// CourseLine aggregates the payments of one course.
type CourseLine struct {
	Code   string
	Title  string
	Tier   string
	Amount decimal.Decimal
	Count  int
}

// Report is the billing summary for a period.
type Report struct {
	From        time.Time
	To          time.Time
	Courses     []CourseLine
	TotalAmount decimal.Decimal
	TotalCount  int
}

// BuildReport sums amount and count per course. Entries without a course
// are ignored. Courses are ordered by code.
func BuildReport(transactions []domain.Transaction, from, to time.Time) Report {
	report := Report{From: from, To: to, TotalAmount: decimal.Zero}

	index := make(map[string]int)
	for _, t := range transactions {
		if t.CourseCode == nil {
			continue
		}

		i, ok := index[*t.CourseCode]
		if !ok {
			line := CourseLine{Code: *t.CourseCode, Amount: decimal.Zero}
			if t.CourseTitle != nil {
				line.Title = *t.CourseTitle
			}
			if t.CourseTier != nil {
				line.Tier = string(*t.CourseTier)
			}
			i = len(report.Courses)
			index[line.Code] = i
			report.Courses = append(report.Courses, line)
		}

		report.Courses[i].Amount = report.Courses[i].Amount.Add(t.Amount)
		report.Courses[i].Count++
		report.TotalAmount = report.TotalAmount.Add(t.Amount)
		report.TotalCount++
	}

	slices.SortFunc(report.Courses, func(a, b CourseLine) int {
		return strings.Compare(a.Code, b.Code)
	})

	return report
}
