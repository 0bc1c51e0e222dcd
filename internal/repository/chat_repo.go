package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// ChatHistoryQuery selects a page of room history.
type ChatHistoryQuery struct {
	RoomID string
	Before time.Time
	Limit  int
}

// ChatRepository persists course room messages.
type ChatRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) error
	History(ctx context.Context, query ChatHistoryQuery) ([]models.ChatMessage, error)
	LatestByRoom(ctx context.Context, roomID string) (models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Save(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// History returns the newest messages before the cursor in chronological order.
func (r *chatRepository) History(ctx context.Context, query ChatHistoryQuery) ([]models.ChatMessage, error) {
	limit := query.Limit
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	tx := r.db.WithContext(ctx).Where("room_id = ?", query.RoomID)
	if !query.Before.IsZero() {
		tx = tx.Where("created_at < ?", query.Before)
	}

	var messages []models.ChatMessage
	if err := tx.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepository) LatestByRoom(ctx context.Context, roomID string) (models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at DESC").Order("id DESC").First(&message).Error
	if err != nil {
		return models.ChatMessage{}, err
	}
	return message, nil
}
