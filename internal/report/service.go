package report

import (
	"context"
	"time"

	"attendanceledger/internal/ledger"
	"attendanceledger/internal/requests"
)

// StudentSource resolves students and their enrollment dates.
type StudentSource interface {
	Student(ctx context.Context, id string) (*ledger.Student, error)
}

// EventSource reads a student's attendance events.
type EventSource interface {
	EventsForStudent(ctx context.Context, studentID string) ([]ledger.AttendanceEvent, error)
}

// LeaveSource reads a student's approved leaves.
type LeaveSource interface {
	ApprovedLeavesForStudent(ctx context.Context, studentID string) ([]requests.LeaveRequest, error)
}

// Service derives attendance views on demand. Every call re-reads the
// stores; nothing is cached, so the projection is restartable and safe
// to run concurrently.
type Service struct {
	students StudentSource
	events   EventSource
	leaves   LeaveSource
	now      func() time.Time
}

// NewService creates an aggregator over the given sources.
func NewService(students StudentSource, events EventSource, leaves LeaveSource) *Service {
	return &Service{students: students, events: events, leaves: leaves, now: time.Now}
}

// Summary computes the statistics for one student.
func (s *Service) Summary(ctx context.Context, studentID string) (Summary, error) {
	student, events, leaves, err := s.load(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(student.EnrolledOn, s.now(), events, len(leaves)), nil
}

// Records computes the filtered daily record stream for one student.
func (s *Service) Records(ctx context.Context, studentID string, f Filter) ([]Record, error) {
	student, events, leaves, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return f.Apply(DailyRecords(student.EnrolledOn, s.now(), events, leaves)), nil
}

func (s *Service) load(ctx context.Context, studentID string) (*ledger.Student, []ledger.AttendanceEvent, []requests.LeaveRequest, error) {
	if studentID == "" {
		return nil, nil, nil, ledger.Validation("student_id", "required")
	}
	student, err := s.students.Student(ctx, studentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if student == nil {
		return nil, nil, nil, ledger.ErrNotFound
	}
	events, err := s.events.EventsForStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, err
	}
	leaves, err := s.leaves.ApprovedLeavesForStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return student, events, leaves, nil
}
