package models

import "time"

// Friendship statuses. Only pending and accepted have exposed transitions;
// rejected and blocked exist in the constraint for forward compatibility.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
	FriendshipBlocked  = "blocked"
)

// Friendship is a directed edge between two users. Existence and uniqueness
// are evaluated on the unordered pair; direction distinguishes who asked.
type Friendship struct {
	ID          string
	RequesterID string
	RecipientID string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Involves reports whether the given user is on either end of the edge.
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.RecipientID == userID
}
