package grading

import "github.com/noah-isme/gema-school-api/internal/models"

// AttendanceSummary is the per-student rollup of a course's attendance rows.
type AttendanceSummary struct {
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Excused       int     `json:"excused"`
	Skipped       int     `json:"skipped"`
	Pending       int     `json:"pending"`
	Recorded      int     `json:"recorded"`
	TotalSessions int     `json:"total_sessions"`
	Attended      int     `json:"attended"`
	Percentage    float64 `json:"percentage"`
}

// SummarizeAttendance counts statuses and derives the attendance ratio.
//
// Skipped sessions never happened and are left out of both sides of the
// ratio. The ratio is 1 when there is nothing to count.
func SummarizeAttendance(statuses []models.AttendanceStatus) AttendanceSummary {
	var summary AttendanceSummary

	for _, status := range statuses {
		switch status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceExcused:
			summary.Excused++
		case models.AttendanceSkipped:
			summary.Skipped++
			continue
		case models.AttendancePending:
			summary.Pending++
		}
		summary.TotalSessions++
	}

	summary.Recorded = summary.Present + summary.Absent + summary.Excused
	summary.Attended = summary.Present + summary.Excused
	summary.Percentage = 1
	if summary.TotalSessions > 0 {
		summary.Percentage = float64(summary.Attended) / float64(summary.TotalSessions)
	}

	return summary
}

// SummarizeRecords is SummarizeAttendance over loaded attendance rows.
func SummarizeRecords(records []models.Attendance) AttendanceSummary {
	statuses := make([]models.AttendanceStatus, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, record.Status)
	}
	return SummarizeAttendance(statuses)
}
