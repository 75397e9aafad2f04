package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/inkwell-be/internal/api/response"
	"github.com/isdelr/inkwell-be/internal/services"
)

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	service services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{service: service}
}

// GetAllForPost lists the comments of a post.
func (h *CommentHandler) GetAllForPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Comments retrieved successfully.", comments)
}

// Create adds a comment to a post.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CommentInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	comment, err := h.service.Create(r.Context(), chi.URLParam(r, "postId"), input, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "Comment created successfully.", comment)
}

// Get retrieves a single comment.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Comment retrieved successfully.", comment)
}

// Update changes a comment's content.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.CommentInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	comment, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input, principal(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Comment updated successfully.", comment)
}

// Delete removes a comment.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, "Comment deleted successfully.", nil)
}
