package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhive/studyhive/internal/database"
	"github.com/studyhive/studyhive/internal/models"
)

const friendshipColumns = `id, requester_id, recipient_id, status, created_at, updated_at`

type FriendshipRepository struct {
	pool *pgxpool.Pool
}

func NewFriendshipRepository(db *database.DB) *FriendshipRepository {
	return &FriendshipRepository{pool: db.Pool}
}

func scanFriendshipRow(scanner rowScanner) (*models.Friendship, error) {
	var f models.Friendship
	err := scanner.Scan(
		&f.ID, &f.RequesterID, &f.RecipientID, &f.Status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &f, nil
}

func scanFriendshipRows(rows pgx.Rows) ([]*models.Friendship, error) {
	defer rows.Close()

	friendships := make([]*models.Friendship, 0)

	for rows.Next() {
		f, err := scanFriendshipRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return friendships, nil
}

// FindRelation looks for an edge between the unordered pair {userA, userB}
// in any of the given statuses, checking both orderings. This is the
// advisory duplicate check; the unique index on (requester_id,
// recipient_id) is the authoritative guard.
func (r *FriendshipRepository) FindRelation(ctx context.Context, userA, userB string, statuses []string) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + ` FROM friendships
		WHERE ((requester_id = $1 AND recipient_id = $2)
			OR (requester_id = $2 AND recipient_id = $1))
		AND status = ANY($3)
	`
	return scanFriendshipRow(r.pool.QueryRow(ctx, query, userA, userB, statuses))
}

// Create inserts a pending edge directed requester -> recipient.
func (r *FriendshipRepository) Create(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	now := time.Now()
	query := `
		INSERT INTO friendships (id, requester_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + friendshipColumns

	return scanFriendshipRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), requesterID, recipientID, models.FriendshipPending, now,
	))
}

// Accept transitions an exact-direction pending edge to accepted.
// Returns ErrNotFound when no such edge exists.
func (r *FriendshipRepository) Accept(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	query := `
		UPDATE friendships SET status = $4, updated_at = $5
		WHERE requester_id = $1 AND recipient_id = $2 AND status = $3
		RETURNING ` + friendshipColumns

	return scanFriendshipRow(r.pool.QueryRow(ctx, query,
		requesterID, recipientID, models.FriendshipPending, models.FriendshipAccepted, time.Now(),
	))
}

// DeleteAccepted removes an accepted edge matching either direction.
// Returns ErrNotFound when the pair is not friends.
func (r *FriendshipRepository) DeleteAccepted(ctx context.Context, userA, userB string) error {
	query := `
		DELETE FROM friendships
		WHERE ((requester_id = $1 AND recipient_id = $2)
			OR (requester_id = $2 AND recipient_id = $1))
		AND status = $3
	`
	tag, err := r.pool.Exec(ctx, query, userA, userB, models.FriendshipAccepted)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByStatus returns edges in the given status with the user on either end.
func (r *FriendshipRepository) ListByStatus(ctx context.Context, userID, status string) ([]*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + ` FROM friendships
		WHERE (requester_id = $1 OR recipient_id = $1) AND status = $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}

	return scanFriendshipRows(rows)
}
