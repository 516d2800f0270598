package service

import "github.com/prosiga/enrollment-gateway/internal/models"

// Badge is the display hint attached to non-selectable sections.
type Badge string

// Badges shown next to catalog results.
const (
	BadgeNone              Badge = ""
	BadgeAlreadyCompleted  Badge = "already completed"
	BadgeCurrentlyEnrolled Badge = "currently enrolled"
	BadgePreviouslyDropped Badge = "previously withdrawn"
)

// Classification is the outcome of the eligibility check for one section.
type Classification struct {
	Selectable bool  `json:"selectable"`
	Badge      Badge `json:"badge,omitempty"`
}

// Classify decides whether a section is a legal staging candidate. The
// check is advisory: the backend re-validates seats and eligibility at
// submission time, this only prevents obviously doomed requests.
func Classify(section models.ClassSection) Classification {
	c := Classification{
		Selectable: section.StudentStatus == models.StudentStatusToTake && section.AvailableSeats > 0,
	}
	switch section.StudentStatus {
	case models.StudentStatusCompleted:
		c.Badge = BadgeAlreadyCompleted
	case models.StudentStatusInProgress:
		c.Badge = BadgeCurrentlyEnrolled
	case models.StudentStatusWithdrawn:
		c.Badge = BadgePreviouslyDropped
	}
	return c
}
