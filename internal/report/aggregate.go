package report

import (
	"math"
	"sort"
	"time"

	"attendanceledger/internal/ledger"
	"attendanceledger/internal/requests"
	"attendanceledger/internal/util"
)

// Summary holds per-student attendance statistics. Approved leaves
// count one unit per request regardless of the days they span.
type Summary struct {
	Present           int `json:"present"`
	KitchenDuty       int `json:"kitchen_duty"`
	ApprovedLeaveDays int `json:"approved_leave_days"`
	Absent            int `json:"absent"`
	ElapsedDays       int `json:"elapsed_days"`
	AttendanceRate    int `json:"attendance_rate"`
}

// Record is one derived row of the daily record stream: a day interval
// and its status label. Attendance events are single-day; approved
// leaves span their whole range as one row; consecutive absent days
// collapse into one interval.
type Record struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"`
	Category string    `json:"category"`
}

// Status categories for filtering.
const (
	CategoryPresent     = "present"
	CategoryKitchenDuty = "kitchen_duty"
	CategoryLeave       = "leave"
	CategoryAbsent      = "absent"
)

// Summarize derives the statistics for one student from the raw event
// log. Absences are inferred, never stored: every elapsed day not
// covered by an event or an approved leave unit is absent, floored at
// zero.
func Summarize(enrolledOn, now time.Time, events []ledger.AttendanceEvent, approvedLeaves int) Summary {
	var present, kitchenDuty int
	for _, evt := range events {
		switch evt.Kind {
		case ledger.KindPresent:
			present++
		case ledger.KindKitchenDuty:
			kitchenDuty++
		}
	}

	elapsed := util.ElapsedDays(enrolledOn, now)
	absent := elapsed - present - kitchenDuty - approvedLeaves
	if absent < 0 {
		absent = 0
	}

	return Summary{
		Present:           present,
		KitchenDuty:       kitchenDuty,
		ApprovedLeaveDays: approvedLeaves,
		Absent:            absent,
		ElapsedDays:       elapsed,
		AttendanceRate:    int(math.Round(float64(present) / float64(elapsed) * 100)),
	}
}

// DailyRecords walks every calendar day from enrollment through today
// and labels it: an attendance event wins, then an approved leave
// range, else absent. Consecutive days sharing a label and a source
// merge into one interval. The result sorts descending by start date.
func DailyRecords(enrolledOn, now time.Time, events []ledger.AttendanceEvent, leaves []requests.LeaveRequest) []Record {
	eventByDay := make(map[string]ledger.AttendanceEvent, len(events))
	for _, evt := range events {
		eventByDay[util.FormatDay(evt.Day)] = evt
	}

	start := util.DayOf(enrolledOn)
	today := util.DayOf(now)

	var recs []Record
	var curSource string
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		label, category, source := labelFor(day, eventByDay, leaves)
		last := len(recs) - 1
		if last >= 0 && recs[last].Status == label && curSource == source && recs[last].End.Equal(day.AddDate(0, 0, -1)) {
			recs[last].End = day
			continue
		}
		recs = append(recs, Record{Start: day, End: day, Status: label, Category: category})
		curSource = source
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Start.After(recs[j].Start) })
	return recs
}

func labelFor(day time.Time, eventByDay map[string]ledger.AttendanceEvent, leaves []requests.LeaveRequest) (label, category, source string) {
	if evt, ok := eventByDay[util.FormatDay(day)]; ok {
		kind := string(evt.Kind)
		return kind, kind, evt.ID
	}
	for _, lv := range leaves {
		if lv.Status != requests.StatusApproved {
			continue
		}
		if !day.Before(util.DayOf(lv.StartDate)) && !day.After(util.DayOf(lv.EndDate)) {
			return string(lv.LeaveType), CategoryLeave, lv.ID
		}
	}
	return CategoryAbsent, CategoryAbsent, ""
}

// Filter narrows a record stream by status category and an inclusive
// date range. Bounds are normalized to midnight; a record matches when
// its interval overlaps the range.
type Filter struct {
	Category string
	From     *time.Time
	To       *time.Time
}

// Apply returns the records matching the filter, order preserved.
func (f Filter) Apply(recs []Record) []Record {
	var out []Record
	for _, rec := range recs {
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		if f.From != nil && rec.End.Before(util.DayOf(*f.From)) {
			continue
		}
		if f.To != nil && rec.Start.After(util.DayOf(*f.To)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
