package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
)

// Event types recorded by the services.
const (
	EventUserRegister  = "user.register"
	EventUserDelete    = "user.delete"
	EventPostCreate    = "post.create"
	EventPostUpdate    = "post.update"
	EventPostDelete    = "post.delete"
	EventCommentCreate = "comment.create"
	EventCommentUpdate = "comment.update"
	EventCommentDelete = "comment.delete"
	EventImageUpload   = "image.upload"
	EventImageDelete   = "image.delete"
	EventStorageLow    = "storage.low"
)

const maxRecentEvents = 200

// Publisher receives every recorded event, e.g. to push it to live feed subscribers.
type Publisher interface {
	Publish(evt models.Event)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(ctx context.Context, eventType, level, message string, actorID, postID *string)
	Recent(ctx context.Context, p auth.Principal, limit int) ([]models.Event, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// EventService provides business logic for the activity log.
type EventService struct {
	db        *gorm.DB
	publisher Publisher
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(db *gorm.DB, publisher Publisher) *EventService {
	return &EventService{db: db, publisher: publisher}
}

// Record logs a new event to the database and publishes it.
// Failures are logged only: the activity log never fails the operation that triggered it.
func (s *EventService) Record(ctx context.Context, eventType, level, message string, actorID, postID *string) {
	event := models.Event{
		Type:    eventType,
		Level:   level,
		Message: message,
		ActorID: actorID,
		PostID:  postID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
		return
	}
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// Recent retrieves the most recent events. Admin only.
func (s *EventService) Recent(ctx context.Context, p auth.Principal, limit int) ([]models.Event, error) {
	if err := auth.RequireRole(p, models.RoleAdmin); err != nil {
		return nil, forbidden("Admin access required.")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxRecentEvents {
		limit = maxRecentEvents
	}

	events := []models.Event{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, internal("events.recent", err)
	}
	return events, nil
}

// Prune deletes events created before olderThan and returns how many were removed.
func (s *EventService) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&models.Event{})
	if res.Error != nil {
		return 0, internal("events.prune", res.Error)
	}
	return res.RowsAffected, nil
}

func strPtr(s string) *string { return &s }
