package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// ActivityListRequest defines filters for retrieving the audit log.
type ActivityListRequest struct {
	Page       int        `query:"page" validate:"omitempty,min=1"`
	PageSize   int        `query:"page_size" validate:"omitempty,min=1,max=100"`
	ActorID    uint       `query:"actor_id"`
	Action     string     `query:"action" validate:"omitempty,max=64"`
	EntityType string     `query:"entity_type" validate:"omitempty,max=64"`
	From       *time.Time `query:"from"`
	To         *time.Time `query:"to"`
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	metadata := make(map[string]interface{}, len(entry.Metadata))
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
