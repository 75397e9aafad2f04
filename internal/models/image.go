package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is a stored picture attached to a post. Its owner is the post's author.
type Image struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ImageURL  string    `json:"imageUrl" gorm:"column:image_url;not null"` // path relative to the upload directory
	PostID    string    `json:"postId" gorm:"column:post_id;type:varchar(36);index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
