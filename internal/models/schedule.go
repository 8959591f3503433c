package models

// ScheduleSummary is the backend's /horario/summary payload.
type ScheduleSummary struct {
	Status      string `json:"status"`
	Type        string `json:"type"`
	PeriodLabel string `json:"periodLabel"`
}

// RawScheduleRow mirrors the backend's /horario/list rows, which use the
// upstream Spanish field names.
type RawScheduleRow struct {
	ID         int64  `json:"id"`
	SubjectID  int64  `json:"materiaId"`
	CourseCode string `json:"materiaCodigo"`
	CourseName string `json:"materiaNombre"`
	Status     string `json:"estatus"`
	Period     string `json:"periodo"`
}

// ScheduleCourse is the normalised schedule entry served to clients.
type ScheduleCourse struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Period string `json:"period"`
}

// ScheduleStudent is the student header of the schedule view.
type ScheduleStudent struct {
	Status        string `json:"status"`
	Type          string `json:"type"`
	CurrentPeriod string `json:"currentSemester"`
}
