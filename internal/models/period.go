package models

import "strconv"

// AcademicPeriod identifies one enrollment window (e.g. 2025/2).
type AcademicPeriod struct {
	ID   int64 `json:"id"`
	Year int   `json:"year"`
	Term int   `json:"term"`
}

// Label renders the human-readable "year/term" form used by the period
// selector.
func (p AcademicPeriod) Label() string {
	return strconv.Itoa(p.Year) + "/" + strconv.Itoa(p.Term)
}
