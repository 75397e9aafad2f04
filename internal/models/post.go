package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a blog entry owned by its author.
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"column:title;uniqueIndex;not null"` // globally unique
	Content   string    `json:"content" gorm:"column:content;type:text;not null"`
	AuthorID  string    `json:"authorId" gorm:"column:author_id;type:varchar(36);index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Images   []Image   `json:"images,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
