package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

// FriendshipServiceInterface defines the interface for friendship business logic
type FriendshipServiceInterface interface {
	SendRequest(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error)
	Unfriend(ctx context.Context, userID, otherID string) error
	ListFriends(ctx context.Context, userID string) ([]*models.Friendship, error)
	ListPendingRequests(ctx context.Context, userID string) ([]*models.Friendship, error)
}

// FriendshipHandler handles friendship-related HTTP requests
type FriendshipHandler struct {
	service FriendshipServiceInterface
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(service FriendshipServiceInterface) *FriendshipHandler {
	return &FriendshipHandler{service: service}
}

// FriendshipResponse is the public shape of a friendship edge
type FriendshipResponse struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requesterId"`
	RecipientID string    `json:"recipientId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toFriendshipResponse(f *models.Friendship) FriendshipResponse {
	return FriendshipResponse{
		ID:          f.ID,
		RequesterID: f.RequesterID,
		RecipientID: f.RecipientID,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toFriendshipResponses(friendships []*models.Friendship) []FriendshipResponse {
	out := make([]FriendshipResponse, 0, len(friendships))
	for _, f := range friendships {
		out = append(out, toFriendshipResponse(f))
	}
	return out
}

// SendRequestRequest represents the request body for sending a friend request
type SendRequestRequest struct {
	RecipientID string `json:"recipientId" validate:"required,uuid"`
}

// AcceptRequestRequest represents the request body for accepting a friend request
type AcceptRequestRequest struct {
	RequesterID string `json:"requesterId" validate:"required,uuid"`
}

// UnfriendRequest represents the request body for removing a friend
type UnfriendRequest struct {
	FriendID string `json:"friendId" validate:"required,uuid"`
}

// SendRequest creates a pending friend request from the caller
func (h *FriendshipHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req SendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	friendship, err := h.service.SendRequest(r.Context(), user.ID, req.RecipientID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A friend request already exists between you and this user")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"friendship": toFriendshipResponse(friendship),
	})
}

// AcceptRequest accepts a pending request addressed to the caller
func (h *FriendshipHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req AcceptRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	friendship, err := h.service.AcceptRequest(r.Context(), user.ID, req.RequesterID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "No pending friend request from that user")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"friendship": toFriendshipResponse(friendship),
	})
}

// Unfriend removes an accepted friendship with the caller on either end
func (h *FriendshipHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req UnfriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Unfriend(r.Context(), user.ID, req.FriendID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "You are not friends with this user")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "Unfriended successfully")
}

// ListFriends returns accepted friendships for the given user
func (h *FriendshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	friendships, err := h.service.ListFriends(r.Context(), id)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"results":     len(friendships),
		"friendships": toFriendshipResponses(friendships),
	})
}

// ListPendingRequests returns pending requests with the given user on
// either end
func (h *FriendshipHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	friendships, err := h.service.ListPendingRequests(r.Context(), id)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"results":     len(friendships),
		"friendships": toFriendshipResponses(friendships),
	})
}
