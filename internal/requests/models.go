package requests

import "time"

// Status is the request lifecycle state. Pending transitions exactly
// once to approved or rejected; terminal states are never rewritten.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// LeaveType is the closed set of accepted leave categories. Extending
// it is a schema migration, not an edit here; the legacy sick/casual/
// personal values belong to a prior schema version.
type LeaveType string

const (
	LeaveEmergency        LeaveType = "emergency"
	LeaveJobInterview     LeaveType = "job_interview"
	LeaveDocumentation    LeaveType = "documentation"
	LeaveCollege          LeaveType = "college"
	LeaveExam             LeaveType = "exam"
	LeaveSpecialOccasions LeaveType = "special_occasions"
	LeaveHealthGeneral    LeaveType = "health_general"
	LeaveHealthPeriod     LeaveType = "health_period"
)

var leaveTypes = map[LeaveType]bool{
	LeaveEmergency:        true,
	LeaveJobInterview:     true,
	LeaveDocumentation:    true,
	LeaveCollege:          true,
	LeaveExam:             true,
	LeaveSpecialOccasions: true,
	LeaveHealthGeneral:    true,
	LeaveHealthPeriod:     true,
}

// ValidLeaveType reports whether t is in the closed enum.
func ValidLeaveType(t LeaveType) bool {
	return leaveTypes[t]
}

// LeaveRequest is a student-submitted, admin-reviewed leave of absence
// covering [StartDate, EndDate] inclusive.
type LeaveRequest struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	LeaveType   LeaveType  `json:"leave_type"`
	Reason      string     `json:"reason"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// CorrectionRequest asks an administrator to fix a missed scan on a
// past day.
type CorrectionRequest struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	AttendanceDate time.Time  `json:"attendance_date"`
	Reason         string     `json:"reason"`
	Status         Status     `json:"status"`
	AdminNotes     string     `json:"admin_notes"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}
