package grading

import (
	"fmt"
	"sort"
)

// Slot is a weekly (day, period) position.
type Slot struct {
	DayOfWeek int `json:"day_of_week"`
	Period    int `json:"period"`
}

// Proposal describes a course being placed into a teacher's slot.
type Proposal struct {
	CourseID  uint
	TeacherID uint
	Slot      Slot
}

// ScheduledCourse is an existing weekly placement of a course.
type ScheduledCourse struct {
	CourseID   uint
	CourseName string
	TeacherID  uint
	Slot       Slot
}

// RosterStudent is a student enrolled in the proposed course together with
// the schedules of every course that student attends.
type RosterStudent struct {
	StudentID   uint
	StudentName string
	Schedules   []ScheduledCourse
}

// ConflictKind distinguishes who is double-booked.
type ConflictKind string

const (
	ConflictStudent ConflictKind = "student"
	ConflictTeacher ConflictKind = "teacher"
)

// Conflict names the double-booked party and the course already in the slot.
type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	StudentID   uint         `json:"student_id,omitempty"`
	StudentName string       `json:"student_name,omitempty"`
	TeacherID   uint         `json:"teacher_id,omitempty"`
	CourseID    uint         `json:"course_id"`
	CourseName  string       `json:"course_name"`
	DayOfWeek   int          `json:"day_of_week"`
	Period      int          `json:"period"`
}

// String renders the conflict for logs and error messages.
func (c Conflict) String() string {
	if c.Kind == ConflictTeacher {
		return fmt.Sprintf("teacher %d already teaches %s on day %d period %d", c.TeacherID, c.CourseName, c.DayOfWeek, c.Period)
	}
	return fmt.Sprintf("student %s already attends %s on day %d period %d", c.StudentName, c.CourseName, c.DayOfWeek, c.Period)
}

// DetectConflicts returns every student and teacher collision the proposal
// would create. Entries of the proposed course itself never conflict.
func DetectConflicts(proposal Proposal, roster []RosterStudent, teacherSchedules []ScheduledCourse) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, existing := range teacherSchedules {
		if existing.CourseID == proposal.CourseID || existing.Slot != proposal.Slot {
			continue
		}
		if existing.TeacherID != 0 && existing.TeacherID != proposal.TeacherID {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:       ConflictTeacher,
			TeacherID:  proposal.TeacherID,
			CourseID:   existing.CourseID,
			CourseName: existing.CourseName,
			DayOfWeek:  existing.Slot.DayOfWeek,
			Period:     existing.Slot.Period,
		})
	}

	for _, student := range roster {
		for _, existing := range student.Schedules {
			if existing.CourseID == proposal.CourseID || existing.Slot != proposal.Slot {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictStudent,
				StudentID:   student.StudentID,
				StudentName: student.StudentName,
				CourseID:    existing.CourseID,
				CourseName:  existing.CourseName,
				DayOfWeek:   existing.Slot.DayOfWeek,
				Period:      existing.Slot.Period,
			})
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Kind != conflicts[j].Kind {
			return conflicts[i].Kind == ConflictTeacher
		}
		if conflicts[i].StudentID != conflicts[j].StudentID {
			return conflicts[i].StudentID < conflicts[j].StudentID
		}
		return conflicts[i].CourseID < conflicts[j].CourseID
	})

	return conflicts
}
