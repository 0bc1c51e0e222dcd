package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/models"
)

func TestSummarizeAttendanceIgnoresSkippedSessions(t *testing.T) {
	base := []models.AttendanceStatus{
		models.AttendancePresent,
		models.AttendanceAbsent,
		models.AttendanceExcused,
		models.AttendancePresent,
	}

	withoutSkipped := SummarizeAttendance(base)
	withSkipped := SummarizeAttendance(append(append([]models.AttendanceStatus{}, base...),
		models.AttendanceSkipped, models.AttendanceSkipped, models.AttendanceSkipped))

	require.InDelta(t, 0.75, withoutSkipped.Percentage, 1e-9)
	require.Equal(t, withoutSkipped.Percentage, withSkipped.Percentage)
	require.Equal(t, withoutSkipped.TotalSessions, withSkipped.TotalSessions)
	require.Equal(t, 3, withSkipped.Skipped)
}

func TestSummarizeAttendanceDefaultsToFullWhenNothingCounted(t *testing.T) {
	require.Equal(t, 1.0, SummarizeAttendance(nil).Percentage)

	onlySkipped := SummarizeAttendance([]models.AttendanceStatus{models.AttendanceSkipped})
	require.Equal(t, 1.0, onlySkipped.Percentage)
	require.Zero(t, onlySkipped.TotalSessions)
}

func TestSummarizeAttendanceKeepsPendingOutOfRecordedCounts(t *testing.T) {
	summary := SummarizeAttendance([]models.AttendanceStatus{
		models.AttendancePresent,
		models.AttendancePending,
	})

	require.Equal(t, 1, summary.Pending)
	require.Equal(t, 1, summary.Recorded)
	require.Equal(t, 2, summary.TotalSessions)
	require.InDelta(t, 0.5, summary.Percentage, 1e-9)
}

func TestSummarizeRecordsReadsStatuses(t *testing.T) {
	summary := SummarizeRecords([]models.Attendance{
		{Status: models.AttendancePresent},
		{Status: models.AttendanceExcused},
		{Status: models.AttendanceAbsent},
		{Status: models.AttendanceAbsent},
	})

	require.Equal(t, 2, summary.Attended)
	require.Equal(t, 2, summary.Absent)
	require.InDelta(t, 0.5, summary.Percentage, 1e-9)
}
