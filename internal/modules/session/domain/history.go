package domain

import "time"

const SchemaVersion = 1

// RotationRecord is one row of the rotation audit log.
type RotationRecord struct {
	ID             string
	RotatedAt      time.Time
	Previous       string
	Next           string
	ElapsedSeconds int
}
