package model

import "time"

// Admin is a staff record. Admins receive broadcasts on their own devices,
// so their tokens participate in fan-out and in invalid-token pruning.
type Admin struct {
	ID           string
	Name         string
	DeviceTokens []string

	UpdateTime time.Time
}
