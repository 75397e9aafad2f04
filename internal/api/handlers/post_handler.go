package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/inkwell-be/internal/api/response"
	"github.com/isdelr/inkwell-be/internal/services"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// GetAll lists posts with their author, comments and images.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	page, err := h.service.List(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Posts retrieved successfully.", page)
}

// Get retrieves a single post.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Post retrieved successfully.", post)
}

// Create handles creating a new post owned by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePostInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	post, err := h.service.Create(r.Context(), input, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "Post created successfully.", post)
}

// Update handles changing a post's title and/or content.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.UpdatePostInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	post, err := h.service.Update(r.Context(), chi.URLParam(r, "postId"), input, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Post updated successfully.", post)
}

// Delete handles removing a post with its comments and images.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "postId"), principal(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Post deleted successfully.", nil)
}
