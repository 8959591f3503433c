package models

// MapCourse is one card of the degree-map view.
type MapCourse struct {
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	Credits int          `json:"credits"`
	Status  CourseStatus `json:"status"`
}

// TermBucket is one academic-term column of the degree map.
type TermBucket struct {
	Term    int         `json:"term"`
	Courses []MapCourse `json:"courses"`
}
