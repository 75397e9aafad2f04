package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type      string    `json:"type" gorm:"column:type;index"` // e.g., "post.create", "user.delete"
	Level     string    `json:"level" gorm:"column:level"`     // e.g., "info", "warn"
	Message   string    `json:"message" gorm:"column:message"`
	ActorID   *string   `json:"actorId,omitempty" gorm:"column:actor_id;type:varchar(36)"` // Nullable for system events
	PostID    *string   `json:"postId,omitempty" gorm:"column:post_id;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// publicEventPrefixes name the event families that describe public content.
var publicEventPrefixes = []string{"post.", "comment.", "image."}

// Public reports whether anyone may see the event. Account and system events are admin only.
func (e Event) Public() bool {
	for _, prefix := range publicEventPrefixes {
		if strings.HasPrefix(e.Type, prefix) {
			return true
		}
	}
	return false
}
