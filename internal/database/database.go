package database

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/models"
)

// ProfileFilter narrows discovery results. Zero values match everything.
type ProfileFilter struct {
	GrowingZone     string
	ExperienceLevel string
	Query           string // matched against username, display name and bio
	Exclude         uuid.UUID
	Limit           int
}

type Store interface {
	// User methods
	CreateUser(username, email, passwordHash string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
	UpdateProfile(userID uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	UpdateLastSeen(userID uuid.UUID) error
	SearchProfiles(filter ProfileFilter) ([]*models.ProfileSummary, error)
	GetProfile(id uuid.UUID) (*models.ProfileSummary, error)

	// Message methods
	ListMessagesFor(viewer uuid.UUID) ([]*models.Message, error)
	ListThread(viewer, partner uuid.UUID) ([]*models.Message, error)
	MarkThreadRead(viewer, partner uuid.UUID) (int64, error)
	AppendMessage(sender, recipient uuid.UUID, content string) (*models.Message, error)

	// Feed methods
	CreatePost(author uuid.UUID, req models.CreatePostRequest) (*models.Post, error)
	ListPosts(limit int) ([]*models.Post, error)

	// Connection methods
	CreateConnection(requester, addressee uuid.UUID) (*models.Connection, error)
	UpdateConnectionStatus(id, actor uuid.UUID, status string) (*models.Connection, error)
	ListConnectionsFor(userID uuid.UUID) ([]*models.Connection, error)

	Close() error
}

type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgres"
	MySQL      DatabaseType = "mysql"
)

func NewStore(dbType DatabaseType, connStr string) (Store, error) {
	switch dbType {
	case PostgreSQL:
		return NewPostgresStore(connStr)
	case MySQL:
		return nil, fmt.Errorf("MySQL implementation not available yet")
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
