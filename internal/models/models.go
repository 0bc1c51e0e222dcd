package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Term{},
		&Teacher{},
		&Homeroom{},
		&Student{},
		&Course{},
		&Assignment{},
		&Submission{},
		&SubmissionGradeHistory{},
		&Attendance{},
		&Schedule{},
		&Material{},
		&Quiz{},
		&QuizQuestion{},
		&QuizAttempt{},
		&ActivityLog{},
		&ChatMessage{},
		&Notification{},
	}
}
