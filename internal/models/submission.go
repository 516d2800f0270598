package models

// SubmissionOutcome labels the result of one enrollment request.
type SubmissionOutcome string

const (
	SubmissionOutcomeSuccess SubmissionOutcome = "SUCCESS"
	SubmissionOutcomeFailure SubmissionOutcome = "FAILURE"
)

// SubmissionResult is the settled outcome of one staged entry's attempt.
// CourseName is denormalised so the report renders without another lookup.
type SubmissionResult struct {
	SectionID  int64             `json:"section_id"`
	CourseName string            `json:"course_name"`
	Outcome    SubmissionOutcome `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
}

// SubmissionFailure is one line of the aggregated failure list.
type SubmissionFailure struct {
	SectionID  int64  `json:"section_id"`
	CourseName string `json:"course_name"`
	Reason     string `json:"reason"`
}

// SubmissionReport aggregates a whole batch. Enrollment is deliberately not
// atomic across sections: partial success is a valid outcome and successes
// are never rolled back when siblings fail.
type SubmissionReport struct {
	BatchID      string              `json:"batch_id"`
	SuccessCount int                 `json:"success_count"`
	Failures     []SubmissionFailure `json:"failures"`
}
