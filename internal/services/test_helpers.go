package services

import (
	"context"
	"time"

	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/repositories"
)

// MockUserRepository implements UserRepository and ProfileRepository for testing
type MockUserRepository struct {
	GetByIDFunc               func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc            func(ctx context.Context, email string) (*models.User, error)
	GetByFederatedSubjectFunc func(ctx context.Context, subjectID string) (*models.User, error)
	CreateFunc                func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc        func(ctx context.Context, id, passwordHash string, changedAt time.Time) (*models.User, error)
	BumpTokenGenerationFunc   func(ctx context.Context, id string) (*models.User, error)
	ListFunc                  func(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error)
	UpdateProfileFunc         func(ctx context.Context, id string, update repositories.ProfileUpdate) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByFederatedSubject(ctx context.Context, subjectID string) (*models.User, error) {
	if m.GetByFederatedSubjectFunc != nil {
		return m.GetByFederatedSubjectFunc(ctx, subjectID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*models.User, error) {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash, changedAt)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) BumpTokenGeneration(ctx context.Context, id string) (*models.User, error) {
	if m.BumpTokenGenerationFunc != nil {
		return m.BumpTokenGenerationFunc(ctx, id)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, update repositories.ProfileUpdate) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, update)
	}
	return nil, models.ErrInternalServer
}

// MockFriendshipRepository implements FriendshipRepository for testing
type MockFriendshipRepository struct {
	FindRelationFunc   func(ctx context.Context, userA, userB string, statuses []string) (*models.Friendship, error)
	CreateFunc         func(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	AcceptFunc         func(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	DeleteAcceptedFunc func(ctx context.Context, userA, userB string) error
	ListByStatusFunc   func(ctx context.Context, userID, status string) ([]*models.Friendship, error)
}

func (m *MockFriendshipRepository) FindRelation(ctx context.Context, userA, userB string, statuses []string) (*models.Friendship, error) {
	if m.FindRelationFunc != nil {
		return m.FindRelationFunc(ctx, userA, userB, statuses)
	}
	return nil, models.ErrNotFound
}

func (m *MockFriendshipRepository) Create(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, requesterID, recipientID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockFriendshipRepository) Accept(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, requesterID, recipientID)
	}
	return nil, models.ErrNotFound
}

func (m *MockFriendshipRepository) DeleteAccepted(ctx context.Context, userA, userB string) error {
	if m.DeleteAcceptedFunc != nil {
		return m.DeleteAcceptedFunc(ctx, userA, userB)
	}
	return models.ErrNotFound
}

func (m *MockFriendshipRepository) ListByStatus(ctx context.Context, userID, status string) ([]*models.Friendship, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, userID, status)
	}
	return []*models.Friendship{}, nil
}

// MockIdentityVerifier implements IdentityVerifier for testing
type MockIdentityVerifier struct {
	VerifyIDTokenFunc func(ctx context.Context, idToken string) (*auth.FederatedIdentity, error)
}

func (m *MockIdentityVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.FederatedIdentity, error) {
	if m.VerifyIDTokenFunc != nil {
		return m.VerifyIDTokenFunc(ctx, idToken)
	}
	return nil, auth.ErrIdentityTokenInvalid
}

// NewTestUser builds a local user with a known password hash
func NewTestUser(id, email, name, passwordHash string) *models.User {
	now := time.Now()
	return &models.User{
		ID:              id,
		Email:           email,
		AuthProvider:    models.ProviderLocal,
		PasswordHash:    passwordHash,
		Role:            models.RoleStudent,
		Name:            name,
		Slug:            Slugify(name),
		ExperienceLevel: models.ExperienceBeginner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
