package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
	"github.com/isdelr/inkwell-be/internal/storage"
)

// ImageStore persists validated uploads and removes them again.
type ImageStore interface {
	FileRemover
	Save(u *storage.Upload) (string, error)
}

// ImageServiceProvider defines the interface for image services.
type ImageServiceProvider interface {
	Create(ctx context.Context, postID string, upload *storage.Upload, p auth.Principal) (models.Image, error)
	ListByPost(ctx context.Context, postID string) ([]models.Image, error)
	Get(ctx context.Context, postID, imageID string) (models.Image, error)
	Update(ctx context.Context, postID, imageID string, upload *storage.Upload, p auth.Principal) (models.Image, error)
	Delete(ctx context.Context, postID, imageID string, p auth.Principal) error
}

// ImageService provides business logic for post images.
type ImageService struct {
	db     *gorm.DB
	store  ImageStore
	events EventServiceProvider
}

// NewImageService creates a new ImageService.
func NewImageService(db *gorm.DB, store ImageStore, events EventServiceProvider) *ImageService {
	return &ImageService{db: db, store: store, events: events}
}

// Create attaches an uploaded image to a post owned by the principal.
// The file is written only after the principal has been authorized.
func (s *ImageService) Create(ctx context.Context, postID string, upload *storage.Upload, p auth.Principal) (models.Image, error) {
	if _, err := s.ownedPost(ctx, postID, p); err != nil {
		return models.Image{}, err
	}
	if upload == nil {
		return models.Image{}, &Error{Kind: KindValidation, Message: "No file uploaded.", Err: storage.ErrMissingFile}
	}

	url, err := s.store.Save(upload)
	if err != nil {
		return models.Image{}, internal("images.create", err)
	}

	image := models.Image{ImageURL: url, PostID: postID}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		removeFiles(s.store, []string{url})
		return models.Image{}, storeError("images.create", "Image", err)
	}

	s.events.Record(ctx, EventImageUpload, "info", fmt.Sprintf("Image uploaded to post %s.", postID), strPtr(p.ID), strPtr(postID))
	return image, nil
}

// ListByPost returns every image attached to a post.
func (s *ImageService) ListByPost(ctx context.Context, postID string) ([]models.Image, error) {
	db := s.db.WithContext(ctx)
	if _, err := findPost(db, postID); err != nil {
		return nil, err
	}

	images := []models.Image{}
	if err := db.Where("post_id = ?", postID).Order("created_at ASC").Find(&images).Error; err != nil {
		return nil, internal("images.list", err)
	}
	return images, nil
}

// Get returns one image of a post.
func (s *ImageService) Get(ctx context.Context, postID, imageID string) (models.Image, error) {
	return findImage(s.db.WithContext(ctx), postID, imageID)
}

// Update replaces the file behind an image. The previous file is removed once the row points at the new one.
func (s *ImageService) Update(ctx context.Context, postID, imageID string, upload *storage.Upload, p auth.Principal) (models.Image, error) {
	if _, err := s.ownedPost(ctx, postID, p); err != nil {
		return models.Image{}, err
	}
	db := s.db.WithContext(ctx)
	image, err := findImage(db, postID, imageID)
	if err != nil {
		return models.Image{}, err
	}
	if upload == nil {
		return models.Image{}, &Error{Kind: KindValidation, Message: "No file uploaded.", Err: storage.ErrMissingFile}
	}

	url, err := s.store.Save(upload)
	if err != nil {
		return models.Image{}, internal("images.update", err)
	}

	previous := image.ImageURL
	if err := db.Model(&image).Update("image_url", url).Error; err != nil {
		removeFiles(s.store, []string{url})
		return models.Image{}, storeError("images.update", "Image", err)
	}
	removeFiles(s.store, []string{previous})

	return findImage(db, postID, imageID)
}

// Delete removes an image row and then its file.
func (s *ImageService) Delete(ctx context.Context, postID, imageID string, p auth.Principal) error {
	if _, err := s.ownedPost(ctx, postID, p); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	image, err := findImage(db, postID, imageID)
	if err != nil {
		return err
	}

	res := db.Delete(&models.Image{}, "id = ?", image.ID)
	if res.Error != nil {
		return storeError("images.delete", "Image", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Image")
	}
	removeFiles(s.store, []string{image.ImageURL})

	s.events.Record(ctx, EventImageDelete, "info", fmt.Sprintf("Image removed from post %s.", postID), strPtr(p.ID), strPtr(postID))
	return nil
}

// ownedPost loads the parent post and checks that the principal authored it.
func (s *ImageService) ownedPost(ctx context.Context, postID string, p auth.Principal) (models.Post, error) {
	if p.ID == "" {
		return models.Post{}, NewError(KindAuthentication, "Authentication required.")
	}
	post, err := findPost(s.db.WithContext(ctx), postID)
	if err != nil {
		return models.Post{}, err
	}
	if !auth.CanModify(p, post.AuthorID) {
		return models.Post{}, forbidden("You are not allowed to manage images of someone else's post.")
	}
	return post, nil
}

// findImage loads an image and treats one attached to a different post as absent.
func findImage(db *gorm.DB, postID, imageID string) (models.Image, error) {
	var image models.Image
	if err := db.First(&image, "id = ? AND post_id = ?", imageID, postID).Error; err != nil {
		return models.Image{}, storeError("images.get", "Image", err)
	}
	return image, nil
}
