package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/models"
	pkgauth "github.com/studyhive/studyhive/pkg/auth"
	pkglogger "github.com/studyhive/studyhive/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByFederatedSubject(ctx context.Context, subjectID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*models.User, error)
	BumpTokenGeneration(ctx context.Context, id string) (*models.User, error)
}

// IdentityVerifier validates externally-issued identity tokens
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.FederatedIdentity, error)
}

// AuthService composes the credential store, password hashing, token
// issuance and the federated verifier into the auth flows.
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	verifier    IdentityVerifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(repo UserRepository, tm *auth.TokenManager, verifier IdentityVerifier, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		verifier:    verifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// TokenPair is the result of every successful auth flow
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// SignupInput carries the signup form
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
	ProfileImage    string
	Subject         string
	StudyMode       bool
	Availability    string
	ExperienceLevel string
	Location        string
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Signup registers a local-password account and logs it in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*TokenPair, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	if input.Email == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: name and email are required", models.ErrBadRequest)
	}
	if input.Password != input.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	// Advisory duplicate check; the unique index on email is authoritative
	_, err := s.repo.GetByEmail(ctx, input.Email)
	if err == nil {
		s.logger.Info("signup failed: email already registered")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role := input.Role
	if role == "" || role == models.RoleAdmin {
		role = models.RoleStudent
	}

	// Truncated so token issued-at (whole seconds) is never before it
	now := time.Now().Truncate(time.Second)
	user := &models.User{
		Email:             input.Email,
		AuthProvider:      models.ProviderLocal,
		PasswordHash:      hashedPassword,
		PasswordChangedAt: &now,
		Role:              role,
		Name:              input.Name,
		Slug:              Slugify(input.Name),
		ProfileImage:      input.ProfileImage,
		Subject:           input.Subject,
		StudyMode:         input.StudyMode,
		Availability:      input.Availability,
		ExperienceLevel:   input.ExperienceLevel,
		Location:          input.Location,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed up", slog.String("user_id", createdUser.ID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventSignup,
		UserID:    createdUser.ID,
		Success:   true,
	})

	return s.issuePair(createdUser)
}

// Login authenticates a local account. Unknown email, provider mismatch
// and wrong password all fail identically so the response cannot be used
// to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.Log(pkglogger.AuditEvent{
				EventType:     pkglogger.EventLoginFailed,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsLocal() {
		s.logger.Info("login failed: provider mismatch", slog.String("user_id", user.ID))
		s.auditLogger.Log(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			UserID:        user.ID,
			FailureReason: "provider_mismatch",
		})
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.Log(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventLoginSuccess,
		UserID:    user.ID,
		Success:   true,
	})

	return s.issuePair(user)
}

// FederatedLogin verifies an external identity token and logs in or
// creates the matching account. An email already owned by a password
// account is a conflict (provider lock-in), never a silent link.
func (s *AuthService) FederatedLogin(ctx context.Context, idToken string) (*TokenPair, error) {
	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Info("federated login failed: identity token rejected", slog.Any("error", err))
		s.auditLogger.Log(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			FailureReason: "identity_token_invalid",
		})
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByFederatedSubject(ctx, identity.SubjectID)
	if err == nil {
		s.auditLogger.Log(pkglogger.AuditEvent{
			EventType: pkglogger.EventFederatedLogin,
			UserID:    user.ID,
			Success:   true,
		})
		return s.issuePair(user)
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up federated subject", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("federated login blocked: email owned by another provider",
			slog.String("user_id", existing.ID),
			slog.String("provider", existing.AuthProvider))
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rating := initialRating()
	user = &models.User{
		Email:              email,
		AuthProvider:       models.ProviderGoogle,
		FederatedSubjectID: identity.SubjectID,
		Role:               models.RoleStudent,
		Name:               identity.Name,
		Slug:               Slugify(identity.Name),
		ProfileImage:       identity.Picture,
		RatingAverage:      &rating,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create federated user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("federated user created", slog.String("user_id", createdUser.ID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventFederatedLogin,
		UserID:    createdUser.ID,
		Success:   true,
	})

	return s.issuePair(createdUser)
}

// Refresh validates a refresh token and rotates it. The old refresh token
// is not blacklisted; it dies by expiry or by a generation bump.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Revoked by a logout after this token was issued
	if claims.TokenGeneration != user.TokenGeneration {
		s.logger.Info("refresh blocked: token generation mismatch", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
		s.logger.Info("refresh blocked: issued before password change", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventTokenRefreshed,
		UserID:    user.ID,
		Success:   true,
	})

	return s.issuePair(user)
}

// Logout bumps the user's token generation, invalidating every
// outstanding access and refresh token with a single counter write.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if _, err := s.repo.BumpTokenGeneration(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to bump token generation", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", userID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventLogout,
		UserID:    userID,
		Success:   true,
	})
	return nil
}

// UpdatePassword rotates a local credential and issues a fresh pair so the
// caller stays logged in while every older token goes stale.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, password, passwordConfirm string) (*TokenPair, error) {
	if password != passwordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user for password update", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsLocal() {
		s.logger.Info("password update blocked: federated account", slog.String("user_id", user.ID))
		return nil, models.ErrConflict
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	changedAt := time.Now().Truncate(time.Second)
	updatedUser, err := s.repo.UpdatePassword(ctx, userID, hashedPassword, changedAt)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("password updated", slog.String("user_id", userID))
	s.auditLogger.Log(pkglogger.AuditEvent{
		EventType: pkglogger.EventPasswordChanged,
		UserID:    userID,
		Success:   true,
	})

	return s.issuePair(updatedUser)
}

// initialRating assigns a starting rating to federated signups, mirroring
// the seeded spread local tutors build up organically.
func initialRating() float64 {
	return 3 + rand.Float64()*2
}
