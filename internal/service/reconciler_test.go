package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielvz/portal-alumnos-api/internal/models"
)

func strPtr(s string) *string { return &s }
func gradePtr(g float64) *float64 { return &g }
func intPtr(n int) *int { return &n }

func TestTermKey(t *testing.T) {
	assert.Equal(t, 20242, TermKey("2024-2"))
	assert.Equal(t, 20251, TermKey("2025-1"))
	assert.Less(t, TermKey("2024-1"), TermKey("2024-2"))
	assert.Less(t, TermKey("2024-2"), TermKey("2025-1"))
	assert.Equal(t, termKeyUnset, TermKey(""))
	assert.Greater(t, TermKey(""), TermKey("2099-2"))
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name   string
		record models.GradeRecord
		want   models.CourseStatus
	}{
		{"grade 59 fails", models.GradeRecord{Grade: gradePtr(59)}, models.StatusFailed},
		{"grade 60 passes", models.GradeRecord{Grade: gradePtr(60)}, models.StatusPassed},
		{"no grade means not taken", models.GradeRecord{}, models.StatusNotTaken},
		{"dropped passes through", models.GradeRecord{Status: models.StatusDropped, Grade: gradePtr(80)}, models.StatusDropped},
		{"in progress passes through", models.GradeRecord{Status: models.StatusInProgress}, models.StatusInProgress},
		{"explicit tag wins over grade", models.GradeRecord{Status: models.StatusPassed}, models.StatusPassed},
		{"invalid tag falls back to grade", models.GradeRecord{Status: "bogus", Grade: gradePtr(95)}, models.StatusPassed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.record))
		})
	}
}

func TestReconcileOneRowPerCode(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "A", Name: "Algebra", Term: strPtr("2023-1"), Grade: gradePtr(70)},
		{Code: "A", Name: "Algebra", Term: strPtr("2024-2"), Grade: gradePtr(85)},
		{Code: "B", Name: "Biology", Term: strPtr("2023-2"), Grade: gradePtr(55)},
	}
	enrolled := []models.GradeRecord{
		{Code: "B", Name: "Biology", Term: strPtr("2025-1")},
		{Code: "C", Name: "Calculus", Term: strPtr("2025-1")},
	}
	plan := []models.Course{{Code: "A"}, {Code: "B"}, {Code: "C"}, {Code: "D", Name: "Databases"}}

	rows := Reconcile(history, enrolled, plan)

	seen := map[string]int{}
	for _, row := range rows {
		seen[row.Code]++
	}
	require.Len(t, rows, 4)
	for code, count := range seen {
		assert.Equalf(t, 1, count, "code %s duplicated", code)
	}
}

func TestReconcileEnrollmentOverridesHistory(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "X", Name: "Networks", Term: strPtr("2024-2"), Grade: gradePtr(92)},
	}
	enrolled := []models.GradeRecord{
		{Code: "X", Name: "Networks", Term: strPtr("2025-1")},
	}

	rows := Reconcile(history, enrolled, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusInProgress, rows[0].Status)
	assert.Equal(t, "2025-1", *rows[0].Term)
}

func TestReconcilePlanFill(t *testing.T) {
	plan := []models.Course{
		{Code: "P1", Name: "Physics", SuggestedTerm: intPtr(3)},
		{Code: "P2", Name: "Programming"},
	}

	rows := Reconcile(nil, nil, plan)
	require.Len(t, rows, 2)

	byCode := map[string]models.ReconciledRow{}
	for _, row := range rows {
		byCode[row.Code] = row
	}

	assert.Equal(t, models.StatusNotTaken, byCode["P1"].Status)
	assert.Nil(t, byCode["P1"].Grade)
	require.NotNil(t, byCode["P1"].Term)
	assert.Equal(t, "3", *byCode["P1"].Term)

	assert.Equal(t, models.StatusNotTaken, byCode["P2"].Status)
	assert.Nil(t, byCode["P2"].Term)
}

func TestReconcileHistoryDedupKeepsMostRecent(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "Y", Name: "Statistics", Term: strPtr("2023-1"), Grade: gradePtr(45)},
		{Code: "Y", Name: "Statistics", Term: strPtr("2024-2"), Grade: gradePtr(88)},
	}

	rows := Reconcile(history, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-2", *rows[0].Term)
	assert.Equal(t, models.StatusPassed, rows[0].Status)
}

func TestReconcileHistoryDedupTieLastWins(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "Z", Name: "Ethics", Term: strPtr("2024-1"), Grade: gradePtr(70), Group: strPtr("01")},
		{Code: "Z", Name: "Ethics", Term: strPtr("2024-1"), Grade: gradePtr(90), Group: strPtr("02")},
	}

	rows := Reconcile(history, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "02", *rows[0].Group)
	assert.Equal(t, 90.0, *rows[0].Grade)
}

func TestReconcileEndToEnd(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "A", Name: "Algebra", Grade: gradePtr(70), Term: strPtr("2023-1")},
	}
	enrolled := []models.GradeRecord{
		{Code: "B", Name: "Biology", Term: strPtr("2024-1")},
	}
	plan := []models.Course{{Code: "A"}, {Code: "B"}, {Code: "C", Name: "Calculus"}}

	rows := Reconcile(history, enrolled, plan)
	require.Len(t, rows, 3)

	assert.Equal(t, "A", rows[0].Code)
	assert.Equal(t, models.StatusPassed, rows[0].Status)
	assert.Equal(t, "2023-1", *rows[0].Term)

	assert.Equal(t, "B", rows[1].Code)
	assert.Equal(t, models.StatusInProgress, rows[1].Status)
	assert.Equal(t, "2024-1", *rows[1].Term)

	assert.Equal(t, "C", rows[2].Code)
	assert.Equal(t, models.StatusNotTaken, rows[2].Status)
	assert.Nil(t, rows[2].Term)
}

func TestReconcileOrderingUnsetTermLast(t *testing.T) {
	history := []models.GradeRecord{
		{Code: "N", Name: "No Term"},
		{Code: "M", Name: "Mid", Term: strPtr("2024-2")},
		{Code: "E", Name: "Early", Term: strPtr("2024-1")},
	}

	rows := Reconcile(history, nil, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, "E", rows[0].Code)
	assert.Equal(t, "M", rows[1].Code)
	assert.Equal(t, "N", rows[2].Code)
}

func TestInProgressAndByTerm(t *testing.T) {
	rows := []models.ReconciledRow{
		{Code: "A", Term: strPtr("2024-1"), Status: models.StatusPassed},
		{Code: "B", Term: strPtr("2024-2"), Status: models.StatusInProgress},
		{Code: "C", Status: models.StatusNotTaken},
	}

	current := InProgress(rows)
	require.Len(t, current, 1)
	assert.Equal(t, "B", current[0].Code)

	term := ByTerm(rows, "2024-1")
	require.Len(t, term, 1)
	assert.Equal(t, "A", term[0].Code)

	assert.Empty(t, ByTerm(rows, "2030-1"))
}

func TestTermsAndLatestTerm(t *testing.T) {
	rows := []models.ReconciledRow{
		{Code: "A", Term: strPtr("2024-2")},
		{Code: "B", Term: strPtr("2023-1")},
		{Code: "C", Term: strPtr("2024-2")},
		{Code: "D"},
	}

	terms := Terms(rows)
	assert.Equal(t, []string{"2023-1", "2024-2"}, terms)
	assert.Equal(t, "2024-2", LatestTerm(rows))

	assert.Equal(t, "", LatestTerm(nil))
}

func TestAverage(t *testing.T) {
	rows := []models.ReconciledRow{
		{Code: "A", Grade: gradePtr(80)},
		{Code: "B", Grade: gradePtr(90)},
		{Code: "C"},
	}

	avg, ok := Average(rows)
	require.True(t, ok)
	assert.Equal(t, 85.00, avg)

	_, ok = Average([]models.ReconciledRow{{Code: "C"}})
	assert.False(t, ok)

	avg, ok = Average([]models.ReconciledRow{
		{Code: "A", Grade: gradePtr(70)},
		{Code: "B", Grade: gradePtr(75)},
		{Code: "C", Grade: gradePtr(81)},
	})
	require.True(t, ok)
	assert.Equal(t, 75.33, avg)
}

func TestTermBuckets(t *testing.T) {
	plan := []models.Course{
		{Code: "4111", Name: "Computing I", Credits: 8, SuggestedTerm: intPtr(1)},
		{Code: "4110", Name: "Intro", Credits: 6, SuggestedTerm: intPtr(1)},
		{Code: "4113", Name: "Computing II", Credits: 8, SuggestedTerm: intPtr(2)},
		{Code: "9999", Name: "Elective", Credits: 4},
	}
	history := []models.GradeRecord{
		{Code: "4111", Grade: gradePtr(85), Term: strPtr("2023-1")},
	}
	enrolled := []models.GradeRecord{
		{Code: "4113", Term: strPtr("4")},
	}

	buckets := TermBuckets(history, enrolled, plan, 3, 8)
	require.Len(t, buckets, 8)

	// suggested term kept for the passed course; ordinal "2023-1" is not
	// a plain integer so it cannot override
	first := buckets[0]
	require.Len(t, first.Courses, 2)
	assert.Equal(t, "4110", first.Courses[0].Code)
	assert.Equal(t, "4111", first.Courses[1].Code)
	assert.Equal(t, models.StatusPassed, first.Courses[1].Status)
	assert.Equal(t, models.StatusNotTaken, first.Courses[0].Status)

	// enrolled course moves to its own ordinal term
	assert.Empty(t, buckets[1].Courses)
	require.Len(t, buckets[3].Courses, 1)
	assert.Equal(t, "4113", buckets[3].Courses[0].Code)
	assert.Equal(t, models.StatusInProgress, buckets[3].Courses[0].Status)

	// no suggested term falls back to the current semester
	require.Len(t, buckets[2].Courses, 1)
	assert.Equal(t, "9999", buckets[2].Courses[0].Code)

	// empty future terms padded up to the minimum column count
	for i := 4; i < 8; i++ {
		assert.Empty(t, buckets[i].Courses)
		assert.Equal(t, i+1, buckets[i].Term)
	}
}

func TestTermBucketsExpandBeyondMinimum(t *testing.T) {
	plan := []models.Course{
		{Code: "A1", SuggestedTerm: intPtr(10)},
	}
	buckets := TermBuckets(nil, nil, plan, 1, 8)
	require.Len(t, buckets, 10)
	assert.Equal(t, "A1", buckets[9].Courses[0].Code)
}
