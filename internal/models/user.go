package models

import (
	"time"

	"github.com/google/uuid"
)

// ExperienceLevel follows the plant-growth scale the community uses.
const (
	ExperienceSprout   = "Sprout"
	ExperienceSeedling = "Seedling"
	ExperienceSapling  = "Sapling"
	ExperienceBranch   = "Branch"
	ExperienceOak      = "Oak"
)

// User represents a gardener account with their public profile.
type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Never send to client
	DisplayName     string    `json:"display_name,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	LocationText    string    `json:"location_text,omitempty"`
	GrowingZone     string    `json:"growing_zone,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	LastSeen        time.Time `json:"last_seen"`
}

// Summary returns the denormalized display data attached to conversations.
func (u *User) Summary() *ProfileSummary {
	return &ProfileSummary{
		ID:              u.ID,
		Username:        u.Username,
		DisplayName:     u.DisplayName,
		AvatarURL:       u.AvatarURL,
		GrowingZone:     u.GrowingZone,
		ExperienceLevel: u.ExperienceLevel,
	}
}

// ProfileSummary is the display subset of a profile that message views need.
type ProfileSummary struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	GrowingZone     string    `json:"growing_zone,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
}

// UserRegistration contains data needed for account registration
type UserRegistration struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserLogin contains data needed for login
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	DisplayName     string `json:"display_name" binding:"required,max=60"`
	Bio             string `json:"bio" binding:"max=600"`
	LocationText    string `json:"location_text" binding:"max=120"`
	GrowingZone     string `json:"growing_zone" binding:"max=8"`
	ExperienceLevel string `json:"experience_level" binding:"omitempty,oneof=Sprout Seedling Sapling Branch Oak"`
	AvatarURL       string `json:"avatar_url" binding:"omitempty,url"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	LocationText    string    `json:"location_text,omitempty"`
	GrowingZone     string    `json:"growing_zone,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewUserResponse strips the private fields off a User.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Bio:             u.Bio,
		LocationText:    u.LocationText,
		GrowingZone:     u.GrowingZone,
		ExperienceLevel: u.ExperienceLevel,
		AvatarURL:       u.AvatarURL,
		CreatedAt:       u.CreatedAt,
	}
}
