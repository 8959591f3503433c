package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CourseStatus is the resolved state of a course for a student.
type CourseStatus string

const (
	StatusNotTaken   CourseStatus = "not_taken"
	StatusPassed     CourseStatus = "passed"
	StatusFailed     CourseStatus = "failed"
	StatusDropped    CourseStatus = "dropped"
	StatusInProgress CourseStatus = "in_progress"
)

// Valid reports whether the status belongs to the closed set.
func (s CourseStatus) Valid() bool {
	switch s {
	case StatusNotTaken, StatusPassed, StatusFailed, StatusDropped, StatusInProgress:
		return true
	}
	return false
}

// Course is an immutable degree-plan catalog entry.
type Course struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Credits       int      `json:"credits"`
	Axis          string   `json:"eje,omitempty"`
	Prereq        []string `json:"prereq,omitempty"`
	SuggestedTerm *int     `json:"suggestedTerm,omitempty"`
}

// GradeRecord is one academic attempt at a course, past or current.
// Optional fields arrive null or absent from the backend.
type GradeRecord struct {
	Code   string       `json:"code"`
	Name   string       `json:"name"`
	Group  *string      `json:"group,omitempty"`
	Term   *string      `json:"semester,omitempty"`
	Grade  *float64     `json:"grade,omitempty"`
	Status CourseStatus `json:"status,omitempty"`
}

// ReconciledRow is the unified per-course view after merging catalog,
// history and enrollment. Exactly one row exists per course code.
type ReconciledRow struct {
	Code   string       `json:"code"`
	Name   string       `json:"name"`
	Group  *string      `json:"group,omitempty"`
	Term   *string      `json:"semester,omitempty"`
	Grade  *float64     `json:"grade,omitempty"`
	Status CourseStatus `json:"status"`
}

// StudentBlock is the per-student header of the historial summary.
type StudentBlock struct {
	Name     string     `json:"name"`
	PlanYear FlexString `json:"planYear"`
	Type     string     `json:"type"`
	Status   string     `json:"status"`
}

// HistorySummary is the payload of the backend's /historial/summary endpoint.
type HistorySummary struct {
	Student         StudentBlock `json:"student"`
	CurrentPeriod   string       `json:"currentPeriod"`
	CurrentSemester int          `json:"currentSemester"`
	KardexAverage   float64      `json:"kardexAverage"`
	GlobalAverage   float64      `json:"globalAverage"`
}

// FlexString tolerates backend fields that arrive as either a JSON string
// or a bare number (planYear does both).
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// Int parses the value as an integer, returning 0 when unparsable.
func (f FlexString) Int() int {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0
	}
	return n
}
