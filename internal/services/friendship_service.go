package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studyhive/studyhive/internal/models"
)

// FriendshipRepository defines the interface for friendship data access
type FriendshipRepository interface {
	FindRelation(ctx context.Context, userA, userB string, statuses []string) (*models.Friendship, error)
	Create(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	Accept(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	DeleteAccepted(ctx context.Context, userA, userB string) error
	ListByStatus(ctx context.Context, userID, status string) ([]*models.Friendship, error)
}

// FriendshipService drives the relationship state machine:
// pending -> accepted -> deleted, with the unordered-pair uniqueness
// invariant held across both directions.
type FriendshipService struct {
	repo   FriendshipRepository
	logger *slog.Logger
}

func NewFriendshipService(repo FriendshipRepository, logger *slog.Logger) *FriendshipService {
	return &FriendshipService{
		repo:   repo,
		logger: logger,
	}
}

// activeStatuses are the states that block a new request between a pair.
var activeStatuses = []string{models.FriendshipPending, models.FriendshipAccepted}

// SendRequest creates a pending edge directed requester -> recipient.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if requesterID == recipientID {
		return nil, fmt.Errorf("%w: you cannot send a friend request to yourself", models.ErrBadRequest)
	}

	// Advisory check across both orderings; the unique index is the
	// authoritative guard if a concurrent request slips past
	existing, err := s.repo.FindRelation(ctx, requesterID, recipientID, activeStatuses)
	if err == nil && existing != nil {
		s.logger.Info("friend request blocked: relation already exists",
			slog.String("requester_id", requesterID),
			slog.String("recipient_id", recipientID),
			slog.String("status", existing.Status))
		return nil, models.ErrConflict
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing relation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	friendship, err := s.repo.Create(ctx, requesterID, recipientID)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost the race; same outcome as the pre-check
			return nil, models.ErrConflict
		}
		if errors.Is(err, models.ErrBadRequest) {
			// Unknown recipient id rejected by the foreign key
			return nil, fmt.Errorf("%w: no such user", models.ErrBadRequest)
		}
		s.logger.Error("failed to create friendship", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("friend request sent",
		slog.String("requester_id", requesterID),
		slog.String("recipient_id", recipientID))

	return friendship, nil
}

// AcceptRequest transitions a pending edge to accepted. The direction must
// match exactly: only the recipient of the original request can accept it.
func (s *FriendshipService) AcceptRequest(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error) {
	friendship, err := s.repo.Accept(ctx, requesterID, recipientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to accept friendship", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("friend request accepted",
		slog.String("requester_id", requesterID),
		slog.String("recipient_id", recipientID))

	return friendship, nil
}

// Unfriend deletes an accepted edge. Either party can initiate and the
// stored direction does not matter.
func (s *FriendshipService) Unfriend(ctx context.Context, userID, otherID string) error {
	err := s.repo.DeleteAccepted(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to unfriend", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("unfriended",
		slog.String("user_id", userID),
		slog.String("other_id", otherID))

	return nil
}

// ListFriends returns accepted edges with the user on either end.
func (s *FriendshipService) ListFriends(ctx context.Context, userID string) ([]*models.Friendship, error) {
	friendships, err := s.repo.ListByStatus(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		s.logger.Error("failed to list friends", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return friendships, nil
}

// ListPendingRequests returns pending edges with the user on either end,
// covering both sent and received requests.
func (s *FriendshipService) ListPendingRequests(ctx context.Context, userID string) ([]*models.Friendship, error) {
	friendships, err := s.repo.ListByStatus(ctx, userID, models.FriendshipPending)
	if err != nil {
		s.logger.Error("failed to list pending requests", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return friendships, nil
}
