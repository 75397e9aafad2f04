package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
)

// CreatePostInput is the payload for a new post.
type CreatePostInput struct {
	Title   string `json:"title" validate:"required,min=10,max=255"`
	Content string `json:"content" validate:"required,min=20"`
}

// UpdatePostInput changes a post. At least one field must be present.
type UpdatePostInput struct {
	Title   *string `json:"title" validate:"omitnil,min=10,max=255"`
	Content *string `json:"content" validate:"omitnil,min=20"`
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	Create(ctx context.Context, input CreatePostInput, p auth.Principal) (models.Post, error)
	Get(ctx context.Context, id string) (models.Post, error)
	List(ctx context.Context, req PageRequest) (Page[models.Post], error)
	Update(ctx context.Context, id string, input UpdatePostInput, p auth.Principal) (models.Post, error)
	Delete(ctx context.Context, id string, p auth.Principal) error
}

// PostService provides business logic for posts.
type PostService struct {
	db     *gorm.DB
	files  FileRemover
	events EventServiceProvider
}

// NewPostService creates a new PostService.
func NewPostService(db *gorm.DB, files FileRemover, events EventServiceProvider) *PostService {
	return &PostService{db: db, files: files, events: events}
}

// authorSummary limits preloaded authors to public fields.
func authorSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}

// withDetail preloads the author, comments with their authors, and images.
func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author", authorSummary).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Author", authorSummary).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

// Create stores a new post owned by the principal.
func (s *PostService) Create(ctx context.Context, input CreatePostInput, p auth.Principal) (models.Post, error) {
	if p.ID == "" {
		return models.Post{}, NewError(KindAuthentication, "Authentication required.")
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if err := validateInput(&input); err != nil {
		return models.Post{}, err
	}

	db := s.db.WithContext(ctx)
	if taken, err := exists(db, &models.Post{}, "title = ?", input.Title); err != nil {
		return models.Post{}, internal("posts.create", err)
	} else if taken {
		return models.Post{}, conflict("A post with the same title already exists.")
	}

	post := models.Post{Title: input.Title, Content: input.Content, AuthorID: p.ID}
	if err := db.Create(&post).Error; err != nil {
		return models.Post{}, storeError("posts.create", "Post", err)
	}

	s.events.Record(ctx, EventPostCreate, "info", fmt.Sprintf("Post '%s' was created.", post.Title), strPtr(p.ID), strPtr(post.ID))
	return s.Get(ctx, post.ID)
}

// Get returns a post with its author, comments and images.
func (s *PostService) Get(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	if err := withDetail(s.db.WithContext(ctx)).First(&post, "id = ?", id).Error; err != nil {
		return models.Post{}, storeError("posts.get", "Post", err)
	}
	return post, nil
}

// List returns posts newest first.
func (s *PostService) List(ctx context.Context, req PageRequest) (Page[models.Post], error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return Page[models.Post]{}, internal("posts.list", err)
	}

	q, page := paginate[models.Post](withDetail(db.Model(&models.Post{})).Order("created_at DESC").Order("id ASC"), req, total)
	page.Items = []models.Post{}
	if err := q.Find(&page.Items).Error; err != nil {
		return Page[models.Post]{}, internal("posts.list", err)
	}
	return page, nil
}

// Update changes the title and/or content of a post owned by the principal.
func (s *PostService) Update(ctx context.Context, id string, input UpdatePostInput, p auth.Principal) (models.Post, error) {
	post, err := s.owned(ctx, id, p)
	if err != nil {
		return models.Post{}, err
	}

	trimPtr(input.Title)
	trimPtr(input.Content)
	if input.Title == nil && input.Content == nil {
		return models.Post{}, validationError("At least one of title or content is required.")
	}
	if err := validateInput(&input); err != nil {
		return models.Post{}, err
	}

	db := s.db.WithContext(ctx)
	updates := map[string]interface{}{}
	title := post.Title
	if input.Title != nil && *input.Title != post.Title {
		if taken, err := exists(db, &models.Post{}, "title = ? AND id <> ?", *input.Title, post.ID); err != nil {
			return models.Post{}, internal("posts.update", err)
		} else if taken {
			return models.Post{}, conflict("A post with the same title already exists.")
		}
		updates["title"] = *input.Title
		title = *input.Title
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}

	if len(updates) > 0 {
		if err := db.Model(&post).Updates(updates).Error; err != nil {
			return models.Post{}, storeError("posts.update", "Post", err)
		}
		s.events.Record(ctx, EventPostUpdate, "info", fmt.Sprintf("Post '%s' was updated.", title), strPtr(p.ID), strPtr(post.ID))
	}
	return s.Get(ctx, post.ID)
}

// Delete removes a post owned by the principal together with its comments and images.
func (s *PostService) Delete(ctx context.Context, id string, p auth.Principal) error {
	post, err := s.owned(ctx, id, p)
	if err != nil {
		return err
	}

	var imagePaths []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Image{}).Where("post_id = ?", post.ID).Pluck("image_url", &imagePaths).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id = ?", post.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return storeError("posts.delete", "Post", err)
	}

	removeFiles(s.files, imagePaths)
	s.events.Record(ctx, EventPostDelete, "warn", fmt.Sprintf("Post '%s' was deleted.", post.Title), strPtr(p.ID), nil)
	return nil
}

// owned loads a post and checks that the principal may modify it.
func (s *PostService) owned(ctx context.Context, id string, p auth.Principal) (models.Post, error) {
	if p.ID == "" {
		return models.Post{}, NewError(KindAuthentication, "Authentication required.")
	}
	post, err := findPost(s.db.WithContext(ctx), id)
	if err != nil {
		return models.Post{}, err
	}
	if !auth.CanModify(p, post.AuthorID) {
		return models.Post{}, forbidden("You are not allowed to modify this post.")
	}
	return post, nil
}

// findPost loads a bare post row.
func findPost(db *gorm.DB, id string) (models.Post, error) {
	var post models.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		return models.Post{}, storeError("posts.get", "Post", err)
	}
	return post, nil
}
