package models

import "time"

// StagingEntry is a class section tentatively selected for enrollment. It
// lives only inside a staging session and is never persisted.
type StagingEntry struct {
	Section ClassSection `json:"section"`
	AddedAt time.Time    `json:"added_at"`
}
