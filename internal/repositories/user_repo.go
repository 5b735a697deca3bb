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

const userColumns = `id, email, auth_provider, password_hash, federated_subject_id,
	token_generation, password_changed_at, role, name, slug, profile_image,
	subject, study_mode, availability, experience_level, location,
	rating_average, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash, federatedSubjectID *string
	var passwordChangedAt *time.Time
	var profileImage, subject, availability, location *string

	err := scanner.Scan(
		&user.ID, &user.Email, &user.AuthProvider, &passwordHash, &federatedSubjectID,
		&user.TokenGeneration, &passwordChangedAt, &user.Role, &user.Name, &user.Slug,
		&profileImage, &subject, &user.StudyMode, &availability,
		&user.ExperienceLevel, &location, &user.RatingAverage,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if federatedSubjectID != nil {
		user.FederatedSubjectID = *federatedSubjectID
	}
	user.PasswordChangedAt = passwordChangedAt
	if profileImage != nil {
		user.ProfileImage = *profileImage
	}
	if subject != nil {
		user.Subject = *subject
	}
	if availability != nil {
		user.Availability = *availability
	}
	if location != nil {
		user.Location = *location
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByFederatedSubject(ctx context.Context, subjectID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE federated_subject_id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, subjectID))
}

// UserFilter narrows List results. Zero values mean "any".
type UserFilter struct {
	Role            string
	Subject         string
	Location        string
	ExperienceLevel string
	StudyMode       *bool
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []interface{}{}

	appendFilter := func(column, value string) {
		if value != "" {
			args = append(args, value)
			query += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	appendFilter("role", filter.Role)
	appendFilter("subject", filter.Subject)
	appendFilter("location", filter.Location)
	appendFilter("experience_level", filter.ExperienceLevel)
	if filter.StudyMode != nil {
		args = append(args, *filter.StudyMode)
		query += fmt.Sprintf(" AND study_mode = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.ExperienceLevel == "" {
		user.ExperienceLevel = models.ExperienceBeginner
	}

	query := `
		INSERT INTO users (id, email, auth_provider, password_hash, federated_subject_id,
			token_generation, password_changed_at, role, name, slug, profile_image,
			subject, study_mode, availability, experience_level, location,
			rating_average, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.AuthProvider,
		nullable(user.PasswordHash), nullable(user.FederatedSubjectID),
		user.TokenGeneration, user.PasswordChangedAt, user.Role, user.Name, user.Slug,
		nullable(user.ProfileImage), nullable(user.Subject), user.StudyMode,
		nullable(user.Availability), user.ExperienceLevel, nullable(user.Location),
		user.RatingAverage, user.CreatedAt, user.UpdatedAt,
	))
}

// ProfileUpdate carries the owner-mutable profile fields. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	Name            *string
	Slug            *string
	ProfileImage    *string
	Subject         *string
	StudyMode       *bool
	Availability    *string
	ExperienceLevel *string
	Location        *string
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			slug = COALESCE($3, slug),
			profile_image = COALESCE($4, profile_image),
			subject = COALESCE($5, subject),
			study_mode = COALESCE($6, study_mode),
			availability = COALESCE($7, availability),
			experience_level = COALESCE($8, experience_level),
			location = COALESCE($9, location),
			updated_at = $10
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, id,
		update.Name, update.Slug, update.ProfileImage, update.Subject,
		update.StudyMode, update.Availability, update.ExperienceLevel,
		update.Location, time.Now(),
	))
}

// UpdatePassword rehashes a credential and records the rotation instant so
// older tokens can be rejected by the gate.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*models.User, error) {
	query := `
		UPDATE users SET password_hash = $2, password_changed_at = $3, updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, id, passwordHash, changedAt))
}

// BumpTokenGeneration atomically increments the revocation counter,
// invalidating every outstanding token for the user.
func (r *UserRepository) BumpTokenGeneration(ctx context.Context, id string) (*models.User, error) {
	query := `
		UPDATE users SET token_generation = token_generation + 1, updated_at = $2
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, id, time.Now()))
}
