package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/api/response"
	"github.com/isdelr/inkwell-be/internal/services"
	"github.com/isdelr/inkwell-be/internal/storage"
)

// ImageField is the multipart field carrying the image file.
const ImageField = "image"

// UploadReader extracts a validated upload from a multipart request.
type UploadReader interface {
	FromRequest(w http.ResponseWriter, r *http.Request, field string) (*storage.Upload, error)
}

// ImageHandler handles HTTP requests for post images.
type ImageHandler struct {
	service services.ImageServiceProvider
	uploads UploadReader
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(service services.ImageServiceProvider, uploads UploadReader) *ImageHandler {
	return &ImageHandler{service: service, uploads: uploads}
}

// GetAllForPost lists the images attached to a post.
func (h *ImageHandler) GetAllForPost(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Images retrieved successfully.", images)
}

// Get retrieves a single image of a post.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	image, err := h.service.Get(r.Context(), chi.URLParam(r, "postId"), chi.URLParam(r, "imageId"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Image retrieved successfully.", image)
}

// Upload attaches a new image to a post. Type and size are checked before the service is involved.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.uploads.FromRequest(w, r, ImageField)
	if err != nil {
		log.Warn().Err(err).Str("post_id", chi.URLParam(r, "postId")).Msg("Rejected image upload")
		response.Error(w, r, err)
		return
	}

	image, err := h.service.Create(r.Context(), chi.URLParam(r, "postId"), upload, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "Image uploaded successfully.", image)
}

// Replace swaps the file behind an existing image.
func (h *ImageHandler) Replace(w http.ResponseWriter, r *http.Request) {
	upload, err := h.uploads.FromRequest(w, r, ImageField)
	if err != nil {
		log.Warn().Err(err).Str("image_id", chi.URLParam(r, "imageId")).Msg("Rejected image upload")
		response.Error(w, r, err)
		return
	}

	image, err := h.service.Update(r.Context(), chi.URLParam(r, "postId"), chi.URLParam(r, "imageId"), upload, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Image updated successfully.", image)
}

// Delete removes an image from a post.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "postId"), chi.URLParam(r, "imageId"), principal(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Image deleted successfully.", nil)
}
