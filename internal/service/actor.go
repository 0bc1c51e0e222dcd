package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// Role names carried in access tokens.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Actor is the authenticated caller. For teachers and students ID is the
// primary key of the matching teachers or students row.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) role() string {
	return strings.ToLower(strings.TrimSpace(a.Role))
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.role() == RoleAdmin }

// IsTeacher reports whether the actor has the teacher role.
func (a Actor) IsTeacher() bool { return a.role() == RoleTeacher }

// IsStudent reports whether the actor has the student role.
func (a Actor) IsStudent() bool { return a.role() == RoleStudent }

// Subject identifies the actor across the teacher and student id spaces,
// e.g. "student:12". Chat senders and notification recipients use it.
func (a Actor) Subject() string {
	return subjectFor(a.role(), a.ID)
}

func subjectFor(role string, id uint) string {
	if role == "" {
		role = "system"
	}
	return fmt.Sprintf("%s:%d", role, id)
}

func studentSubject(id uint) string {
	return subjectFor(RoleStudent, id)
}

// canManageCourse allows admins and the course's own teacher.
func canManageCourse(actor Actor, course models.Course) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.IsTeacher() && course.TeacherID == actor.ID
}

// canViewCourse additionally allows students on the loaded roster.
func canViewCourse(actor Actor, course models.Course) bool {
	if canManageCourse(actor, course) {
		return true
	}
	return actor.IsStudent() && course.HasStudent(actor.ID)
}
