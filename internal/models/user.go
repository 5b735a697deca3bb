package models

import (
	"time"
)

// Auth providers
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Roles
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

// Experience levels
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

type User struct {
	ID                 string
	Email              string
	AuthProvider       string // "local" or "google"; fixed at creation
	PasswordHash       string // set only for local accounts, never serialized
	FederatedSubjectID string // set only for google accounts
	TokenGeneration    int64  // bumped on logout; embedded in issued tokens
	PasswordChangedAt  *time.Time
	Role               string
	Name               string
	Slug               string
	ProfileImage       string
	Subject            string
	StudyMode          bool
	Availability       string
	ExperienceLevel    string
	Location           string
	RatingAverage      *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsLocal reports whether the account authenticates with a password.
func (u *User) IsLocal() bool {
	return u.AuthProvider == ProviderLocal
}
