// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status

// Status represents the workload status a charm reports for its unit
// or application through status-set.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
}

const (
	// Maintenance is set when:
	// The unit is not yet providing services, but is actively doing stuff
	// in preparation for providing those services.
	Maintenance Status = "maintenance"

	// Waiting is set when:
	// The unit is unable to progress to an active state because something
	// it depends on, such as its workload container, is not ready yet.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

// KnownWorkloadStatus returns true if status is a value a charm is
// allowed to set for its unit or application.
func (s Status) KnownWorkloadStatus() bool {
	switch s {
	case
		Blocked,
		Maintenance,
		Waiting,
		Active:
		return true
	default:
		return false
	}
}

// NewActive returns an active status with no message.
func NewActive() StatusInfo {
	return StatusInfo{Status: Active}
}

// NewBlocked returns a blocked status carrying msg.
func NewBlocked(msg string) StatusInfo {
	return StatusInfo{Status: Blocked, Message: msg}
}

// NewWaiting returns a waiting status carrying msg.
func NewWaiting(msg string) StatusInfo {
	return StatusInfo{Status: Waiting, Message: msg}
}
