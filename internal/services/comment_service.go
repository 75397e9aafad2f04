package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
)

// CommentInput is the payload for creating or editing a comment.
type CommentInput struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	Create(ctx context.Context, postID string, input CommentInput, p auth.Principal) (models.Comment, error)
	Get(ctx context.Context, id string) (models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Update(ctx context.Context, id string, input CommentInput, p auth.Principal) (models.Comment, error)
	Delete(ctx context.Context, id string, p auth.Principal) error
}

// CommentService provides business logic for comments.
type CommentService struct {
	db     *gorm.DB
	events EventServiceProvider
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *gorm.DB, events EventServiceProvider) *CommentService {
	return &CommentService{db: db, events: events}
}

// Create adds a comment to an existing post. Any authenticated principal may comment.
func (s *CommentService) Create(ctx context.Context, postID string, input CommentInput, p auth.Principal) (models.Comment, error) {
	if p.ID == "" {
		return models.Comment{}, NewError(KindAuthentication, "Authentication required.")
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := validateInput(&input); err != nil {
		return models.Comment{}, err
	}

	db := s.db.WithContext(ctx)
	if _, err := findPost(db, postID); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{Content: input.Content, PostID: postID, AuthorID: p.ID}
	if err := db.Create(&comment).Error; err != nil {
		return models.Comment{}, storeError("comments.create", "Comment", err)
	}

	s.events.Record(ctx, EventCommentCreate, "info", fmt.Sprintf("%s commented on post %s.", p.Username, postID), strPtr(p.ID), strPtr(postID))
	return s.Get(ctx, comment.ID)
}

// Get returns a single comment with its author.
func (s *CommentService) Get(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author", authorSummary).First(&comment, "id = ?", id).Error; err != nil {
		return models.Comment{}, storeError("comments.get", "Comment", err)
	}
	return comment, nil
}

// ListByPost returns the comments of a post, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	db := s.db.WithContext(ctx)
	if _, err := findPost(db, postID); err != nil {
		return nil, err
	}

	comments := []models.Comment{}
	err := db.Preload("Author", authorSummary).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, internal("comments.list", err)
	}
	return comments, nil
}

// Update changes the content of a comment written by the principal.
func (s *CommentService) Update(ctx context.Context, id string, input CommentInput, p auth.Principal) (models.Comment, error) {
	comment, err := s.owned(ctx, id, p)
	if err != nil {
		return models.Comment{}, err
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := validateInput(&input); err != nil {
		return models.Comment{}, err
	}

	if err := s.db.WithContext(ctx).Model(&comment).Update("content", input.Content).Error; err != nil {
		return models.Comment{}, storeError("comments.update", "Comment", err)
	}
	s.events.Record(ctx, EventCommentUpdate, "info", fmt.Sprintf("Comment %s was updated.", comment.ID), strPtr(p.ID), strPtr(comment.PostID))
	return s.Get(ctx, comment.ID)
}

// Delete removes a comment written by the principal.
func (s *CommentService) Delete(ctx context.Context, id string, p auth.Principal) error {
	comment, err := s.owned(ctx, id, p)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", comment.ID)
	if res.Error != nil {
		return storeError("comments.delete", "Comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Comment")
	}

	s.events.Record(ctx, EventCommentDelete, "info", fmt.Sprintf("Comment %s was deleted.", comment.ID), strPtr(p.ID), strPtr(comment.PostID))
	return nil
}

func (s *CommentService) owned(ctx context.Context, id string, p auth.Principal) (models.Comment, error) {
	if p.ID == "" {
		return models.Comment{}, NewError(KindAuthentication, "Authentication required.")
	}
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return models.Comment{}, storeError("comments.get", "Comment", err)
	}
	if !auth.CanModify(p, comment.AuthorID) {
		return models.Comment{}, forbidden("You are not allowed to modify this comment.")
	}
	return comment, nil
}
