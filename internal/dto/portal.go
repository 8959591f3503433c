package dto

import "github.com/arielvz/portal-alumnos-api/internal/models"

// StudentHeader is the per-student block shared by the grade views.
type StudentHeader struct {
	Name     string `json:"name"`
	PlanYear string `json:"planYear"`
	Type     string `json:"type"`
	Status   string `json:"status"`
}

// GradesResponse is the current-enrollment grades view: the student
// header plus the courses in progress this period.
type GradesResponse struct {
	Student         StudentHeader          `json:"student"`
	CurrentPeriod   string                 `json:"currentPeriod"`
	CurrentSemester int                    `json:"currentSemester"`
	KardexAverage   float64                `json:"kardexAverage"`
	GlobalAverage   float64                `json:"globalAverage"`
	Courses         []models.ReconciledRow `json:"courses"`
}

// History view selectors.
const (
	HistoryViewGlobal   = "global"
	HistoryViewEnrolled = "enrolled"
	HistoryViewTerm     = "term"
)

// HistoryViewResponse is the course-history view under one of the three
// selectors. Average is omitted when no row carries a numeric grade.
type HistoryViewResponse struct {
	View    string                 `json:"vista"`
	Term    string                 `json:"term,omitempty"`
	Terms   []string               `json:"terms"`
	Average *float64               `json:"average,omitempty"`
	Rows    []models.ReconciledRow `json:"rows"`
}

// MapResponse is the degree-plan map: one column per academic term.
type MapResponse struct {
	Student         StudentHeader       `json:"student"`
	CurrentSemester int                 `json:"currentSemester"`
	Terms           []models.TermBucket `json:"terms"`
}

// ScheduleResponse is the current schedule view.
type ScheduleResponse struct {
	Student models.ScheduleStudent  `json:"student"`
	Courses []models.ScheduleCourse `json:"courses"`
}

// CreditsResponse is the credit-progress view.
type CreditsResponse struct {
	models.CreditsView
}

// UploadResponse reports the outcome of a kardex upload.
type UploadResponse struct {
	OK      bool                `json:"ok"`
	Message string              `json:"message,omitempty"`
	Summary *models.UserSummary `json:"summary,omitempty"`
}

// UploadHistoryResponse lists previous kardex uploads. Audits is the
// gateway-side attempt trail and is only present when audit persistence
// is enabled.
type UploadHistoryResponse struct {
	Uploads []models.UploadRecord `json:"uploads"`
	Audits  []models.UploadAudit  `json:"audits,omitempty"`
}

// SessionResponse exposes the active expediente.
type SessionResponse struct {
	Expediente string `json:"expediente"`
}
