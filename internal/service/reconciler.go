package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/arielvz/portal-alumnos-api/internal/models"
)

// The reconciler merges the three course sources (grade history, current
// enrollment, degree-plan catalog) into one row per course code. It is pure
// computation: callers surface upstream fetch failures before invoking it,
// and missing optional fields are treated as benign defaults, never errors.

const (
	passingGrade = 60

	// termKeyUnset sorts rows without a parsable term label after every
	// real period.
	termKeyUnset = 999999
)

// TermKey orders period labels of the form "YYYY-N" chronologically:
// 2024-2 -> 20242. Absent or unparsable labels sort last.
func TermKey(label string) int {
	if label == "" {
		return termKeyUnset
	}
	yearStr, termStr, _ := strings.Cut(label, "-")
	year, _ := strconv.Atoi(yearStr)
	term, _ := strconv.Atoi(termStr)
	return year*10 + term
}

func termKeyOf(label *string) int {
	if label == nil {
		return termKeyUnset
	}
	return TermKey(*label)
}

// StatusOf resolves a record's status. An explicit valid tag passes
// through; otherwise a numeric grade >= 60 is passed and < 60 failed, and
// the absence of a usable grade means the course was not taken.
func StatusOf(r models.GradeRecord) models.CourseStatus {
	if r.Status.Valid() {
		return r.Status
	}
	if r.Grade != nil {
		if *r.Grade >= passingGrade {
			return models.StatusPassed
		}
		return models.StatusFailed
	}
	return models.StatusNotTaken
}

// Reconcile merges history, enrollment and plan into exactly one row per
// distinct course code, ordered by term key then code.
//
// Precedence, low to high:
//  1. history seeds the map, keeping the most recent attempt per code
//     (ties go to the later record);
//  2. enrollment replaces any history row, forcing in_progress — active
//     enrollment is the freshest truth this side of the backend;
//  3. plan fills codes never attempted nor enrolled as not_taken.
func Reconcile(history, enrolled []models.GradeRecord, plan []models.Course) []models.ReconciledRow {
	merged := make(map[string]models.ReconciledRow, len(history)+len(enrolled)+len(plan))

	for _, r := range history {
		row := models.ReconciledRow{
			Code:   r.Code,
			Name:   r.Name,
			Group:  r.Group,
			Term:   r.Term,
			Grade:  r.Grade,
			Status: StatusOf(r),
		}
		existing, ok := merged[r.Code]
		if !ok || termKeyOf(row.Term) >= termKeyOf(existing.Term) {
			merged[r.Code] = row
		}
	}

	for _, r := range enrolled {
		merged[r.Code] = models.ReconciledRow{
			Code:   r.Code,
			Name:   r.Name,
			Group:  r.Group,
			Term:   r.Term,
			Grade:  r.Grade,
			Status: models.StatusInProgress,
		}
	}

	for _, course := range plan {
		if _, ok := merged[course.Code]; ok {
			continue
		}
		var term *string
		if course.SuggestedTerm != nil {
			label := strconv.Itoa(*course.SuggestedTerm)
			term = &label
		}
		merged[course.Code] = models.ReconciledRow{
			Code:   course.Code,
			Name:   course.Name,
			Term:   term,
			Status: models.StatusNotTaken,
		}
	}

	rows := make([]models.ReconciledRow, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		ki, kj := termKeyOf(rows[i].Term), termKeyOf(rows[j].Term)
		if ki != kj {
			return ki < kj
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}

// InProgress filters the rows the student is currently enrolled in.
func InProgress(rows []models.ReconciledRow) []models.ReconciledRow {
	out := make([]models.ReconciledRow, 0, len(rows))
	for _, row := range rows {
		if row.Status == models.StatusInProgress {
			out = append(out, row)
		}
	}
	return out
}

// ByTerm filters rows whose term label equals the selected term.
func ByTerm(rows []models.ReconciledRow, term string) []models.ReconciledRow {
	out := make([]models.ReconciledRow, 0, len(rows))
	for _, row := range rows {
		if row.Term != nil && *row.Term == term {
			out = append(out, row)
		}
	}
	return out
}

// Terms lists the distinct period labels present among rows, sorted
// chronologically. The last entry is the most recent term. Plan-filled
// rows carry a bare suggested-term ordinal instead of a "YYYY-N" label
// and are excluded.
func Terms(rows []models.ReconciledRow) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0, 8)
	for _, row := range rows {
		if row.Term == nil || !strings.Contains(*row.Term, "-") {
			continue
		}
		if _, ok := seen[*row.Term]; ok {
			continue
		}
		seen[*row.Term] = struct{}{}
		terms = append(terms, *row.Term)
	}
	sort.Slice(terms, func(i, j int) bool {
		ki, kj := TermKey(terms[i]), TermKey(terms[j])
		if ki != kj {
			return ki < kj
		}
		return terms[i] < terms[j]
	})
	return terms
}

// LatestTerm returns the most recent term label among rows, or "" when no
// row carries one. Used as the default selection for the term filter.
func LatestTerm(rows []models.ReconciledRow) string {
	terms := Terms(rows)
	if len(terms) == 0 {
		return ""
	}
	return terms[len(terms)-1]
}

// Average computes the mean of the numeric grades among rows, rounded to
// two decimals. The second return is false when no numeric grade exists.
func Average(rows []models.ReconciledRow) (float64, bool) {
	var sum float64
	var count int
	for _, row := range rows {
		if row.Grade == nil {
			continue
		}
		sum += *row.Grade
		count++
	}
	if count == 0 {
		return 0, false
	}
	return math.Round(sum/float64(count)*100) / 100, true
}

// TermBuckets groups the plan into one column per academic term for the
// degree map. A record contributes its own term ordinal only when the term
// field is a plain integer; otherwise resolution falls through to the
// plan's suggested term, then the student's current semester, then 1.
// Columns run from 1 up to at least minColumns, including empty ones.
func TermBuckets(history, enrolled []models.GradeRecord, plan []models.Course, currentSemester, minColumns int) []models.TermBucket {
	hist := make(map[string]models.GradeRecord, len(history))
	for _, r := range history {
		hist[r.Code] = r
	}
	curr := make(map[string]models.GradeRecord, len(enrolled))
	for _, r := range enrolled {
		curr[r.Code] = r
	}

	if minColumns <= 0 {
		minColumns = 8
	}
	maxTerm := minColumns
	buckets := make(map[int][]models.MapCourse)

	for _, course := range plan {
		status := models.StatusNotTaken
		term := fallbackTerm(course.SuggestedTerm, currentSemester)

		if r, ok := curr[course.Code]; ok {
			status = models.StatusInProgress
			if n, ok := termOrdinal(r.Term); ok {
				term = n
			} else if currentSemester > 0 {
				term = currentSemester
			}
		} else if r, ok := hist[course.Code]; ok {
			status = StatusOf(r)
			if n, ok := termOrdinal(r.Term); ok {
				term = n
			}
		}

		if term < 1 {
			term = 1
		}
		if term > maxTerm {
			maxTerm = term
		}
		buckets[term] = append(buckets[term], models.MapCourse{
			Code:    course.Code,
			Name:    course.Name,
			Credits: course.Credits,
			Status:  status,
		})
	}

	out := make([]models.TermBucket, 0, maxTerm)
	for term := 1; term <= maxTerm; term++ {
		courses := buckets[term]
		sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
		out = append(out, models.TermBucket{Term: term, Courses: courses})
	}
	return out
}

func fallbackTerm(suggested *int, currentSemester int) int {
	if suggested != nil && *suggested > 0 {
		return *suggested
	}
	if currentSemester > 0 {
		return currentSemester
	}
	return 1
}

func termOrdinal(label *string) (int, bool) {
	if label == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(*label))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
