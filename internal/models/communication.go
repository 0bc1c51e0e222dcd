package models

import "time"

// ChatMessage is a message posted into a course room.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SenderID  string    `gorm:"size:64;index" json:"sender_id"`
	RoomID    string    `gorm:"size:128;index" json:"room_id"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"size:32;default:text" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification represents a push notification targeted to a specific user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
