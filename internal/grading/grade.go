package grading

import (
	"math"
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// SubmissionScore is the part of a submission the grade formula reads.
type SubmissionScore struct {
	// Grade is a percentage of the assignment; nil while ungraded.
	Grade       *float64
	SubmittedAt time.Time
}

// AssignmentScore pairs an assignment with the student's submission, if any.
type AssignmentScore struct {
	AssignmentID  uint
	MaxPoints     float64
	IsExtraCredit bool
	// LatePenalty is a percentage of the earned points.
	LatePenalty float64
	DueDate     *time.Time
	Submission  *SubmissionScore
}

// GradeBreakdown is the result of CalculateGrade.
type GradeBreakdown struct {
	EarnedPoints        float64 `json:"earned_points"`
	ExtraCreditPoints   float64 `json:"extra_credit_points"`
	MaxPoints           float64 `json:"max_points"`
	AttendancePoolScore float64 `json:"attendance_pool_score"`
	AttendanceScore     float64 `json:"attendance_score"`
	Numerator           float64 `json:"numerator"`
	Denominator         float64 `json:"denominator"`
	Grade               float64 `json:"grade"`
}

// AssignmentPoints converts a submission's percentage into points, applying
// the late penalty to the points rather than to the percentage.
func AssignmentPoints(assignment AssignmentScore) float64 {
	submission := assignment.Submission
	if submission == nil || submission.Grade == nil {
		return 0
	}

	points := clamp(*submission.Grade, 0, 100) / 100 * assignment.MaxPoints

	penalty := clamp(assignment.LatePenalty, 0, 100)
	if assignment.DueDate != nil && submission.SubmittedAt.After(*assignment.DueDate) && penalty > 0 {
		points -= points * (penalty / 100)
	}

	return points
}

// CalculateGrade blends assignment points and the attendance pool into one
// course percentage. attendancePercentage is a ratio in [0,1].
//
// Extra credit raises the numerator only. The result is capped at 100 and a
// course with nothing gradable yields 100.
func CalculateGrade(assignments []AssignmentScore, attendancePoolScore, attendancePercentage float64) GradeBreakdown {
	breakdown := GradeBreakdown{AttendancePoolScore: attendancePoolScore}

	for _, assignment := range assignments {
		points := AssignmentPoints(assignment)
		if assignment.IsExtraCredit {
			breakdown.ExtraCreditPoints += points
			continue
		}
		breakdown.EarnedPoints += points
		breakdown.MaxPoints += assignment.MaxPoints
	}

	breakdown.AttendanceScore = attendancePercentage * attendancePoolScore
	breakdown.Numerator = breakdown.EarnedPoints + breakdown.ExtraCreditPoints + breakdown.AttendanceScore
	breakdown.Denominator = breakdown.MaxPoints + attendancePoolScore

	if breakdown.Denominator == 0 {
		breakdown.Grade = 100
		return breakdown
	}

	breakdown.Grade = clamp(breakdown.Numerator/breakdown.Denominator*100, 0, 100)
	return breakdown
}

// ScoresFor builds the calculator input for one student from loaded
// assignments and that student's submissions.
func ScoresFor(assignments []models.Assignment, submissions []models.Submission) []AssignmentScore {
	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		current, exists := byAssignment[submission.AssignmentID]
		if !exists || submission.SubmittedAt.After(current.SubmittedAt) {
			byAssignment[submission.AssignmentID] = submission
		}
	}

	scores := make([]AssignmentScore, 0, len(assignments))
	for _, assignment := range assignments {
		score := AssignmentScore{
			AssignmentID:  assignment.ID,
			MaxPoints:     assignment.MaxPoints,
			IsExtraCredit: assignment.IsExtraCredit,
			LatePenalty:   assignment.LatePenalty,
			DueDate:       assignment.DueDate,
		}
		if submission, ok := byAssignment[assignment.ID]; ok {
			score.Submission = &SubmissionScore{
				Grade:       submission.Grade,
				SubmittedAt: submission.SubmittedAt,
			}
		}
		scores = append(scores, score)
	}

	return scores
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
