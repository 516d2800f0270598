package models

// StudentStatus describes a student's relationship to a course offering,
// computed by the academic backend per requesting student.
type StudentStatus string

// Possible student statuses.
const (
	StudentStatusToTake     StudentStatus = "TO_TAKE"
	StudentStatusInProgress StudentStatus = "IN_PROGRESS"
	StudentStatusCompleted  StudentStatus = "COMPLETED"
	StudentStatusWithdrawn  StudentStatus = "WITHDRAWN"
)

// Valid reports whether the status is one of the known values.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusToTake, StudentStatusInProgress, StudentStatusCompleted, StudentStatusWithdrawn:
		return true
	}
	return false
}

// ClassSection is one offering of a course within an academic period.
// Instances are created fresh on every catalog query; the backend remains
// authoritative for seats and eligibility.
type ClassSection struct {
	SectionID      int64         `json:"section_id"`
	SectionCode    string        `json:"section_code"`
	CourseCode     string        `json:"course_code"`
	CourseName     string        `json:"course_name"`
	AvailableSeats int           `json:"available_seats"`
	Schedule       string        `json:"schedule,omitempty"`
	Location       string        `json:"location,omitempty"`
	Description    string        `json:"description,omitempty"`
	IdealSemester  *int          `json:"ideal_semester,omitempty"`
	StudentStatus  StudentStatus `json:"student_status"`
}
