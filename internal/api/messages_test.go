package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rootedtogether/rooted/internal/database"
	"github.com/rootedtogether/rooted/internal/models"
)

// MockStore implements the database.Store interface for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(username, email, passwordHash string) (*models.User, error) {
	args := m.Called(username, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateProfile(userID uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateLastSeen(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStore) SearchProfiles(filter database.ProfileFilter) ([]*models.ProfileSummary, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProfileSummary), args.Error(1)
}

func (m *MockStore) GetProfile(id uuid.UUID) (*models.ProfileSummary, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileSummary), args.Error(1)
}

func (m *MockStore) ListMessagesFor(viewer uuid.UUID) ([]*models.Message, error) {
	args := m.Called(viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockStore) ListThread(viewer, partner uuid.UUID) ([]*models.Message, error) {
	args := m.Called(viewer, partner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockStore) MarkThreadRead(viewer, partner uuid.UUID) (int64, error) {
	args := m.Called(viewer, partner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) AppendMessage(sender, recipient uuid.UUID, content string) (*models.Message, error) {
	args := m.Called(sender, recipient, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) CreatePost(author uuid.UUID, req models.CreatePostRequest) (*models.Post, error) {
	args := m.Called(author, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockStore) ListPosts(limit int) ([]*models.Post, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockStore) CreateConnection(requester, addressee uuid.UUID) (*models.Connection, error) {
	args := m.Called(requester, addressee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockStore) UpdateConnectionStatus(id, actor uuid.UUID, status string) (*models.Connection, error) {
	args := m.Called(id, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockStore) ListConnectionsFor(userID uuid.UUID) ([]*models.Connection, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockNotifier records realtime hints without a live websocket.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewMessage(recipient uuid.UUID, msg *models.Message) {
	m.Called(recipient, msg)
}

// setupMessageTest creates a gin router with the MockStore and a stub auth
// middleware that injects the viewer's id.
func setupMessageTest(t *testing.T) (*gin.Engine, *MockStore, *MockNotifier, uuid.UUID) {
	gin.SetMode(gin.TestMode)

	viewerID := uuid.New()
	router := gin.New()
	mockStore := new(MockStore)
	mockNotifier := new(MockNotifier)

	handler := NewMessageHandler(mockStore, mockNotifier)

	group := router.Group("/api")
	group.Use(func(c *gin.Context) {
		c.Set("userID", viewerID)
		c.Next()
	})

	group.GET("/conversations", handler.ListConversations)
	group.GET("/conversations/:partnerID", handler.GetThread)
	group.POST("/messages", handler.SendMessage)

	return router, mockStore, mockNotifier, viewerID
}

func TestListConversations(t *testing.T) {
	t.Run("aggregates the feed into per-partner summaries", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		partner1 := uuid.New()
		partner2 := uuid.New()
		now := time.Now().UTC()

		feed := []*models.Message{
			{ID: uuid.New(), SenderID: partner1, RecipientID: viewerID, Content: "newest", CreatedAt: now},
			{ID: uuid.New(), SenderID: viewerID, RecipientID: partner2, Content: "older", CreatedAt: now.Add(-time.Minute)},
			{ID: uuid.New(), SenderID: partner1, RecipientID: viewerID, Content: "oldest", CreatedAt: now.Add(-2 * time.Minute)},
		}

		mockStore.On("ListMessagesFor", viewerID).Return(feed, nil).Once()
		mockStore.On("GetProfile", partner1).Return(&models.ProfileSummary{ID: partner1, Username: "fernfan"}, nil).Once()
		mockStore.On("GetProfile", partner2).Return(&models.ProfileSummary{ID: partner2, Username: "mossboss"}, nil).Once()

		req, _ := http.NewRequest("GET", "/api/conversations", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)

		assert.Len(t, response, 2)
		assert.Equal(t, partner1.String(), response[0]["partner_id"])
		assert.Equal(t, float64(2), response[0]["unread_count"])
		assert.Equal(t, partner2.String(), response[1]["partner_id"])
		assert.Equal(t, float64(0), response[1]["unread_count"])

		mockStore.AssertExpectations(t)
	})

	t.Run("store failure maps to bad gateway", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		mockStore.On("ListMessagesFor", viewerID).Return(nil, fmt.Errorf("connection refused")).Once()

		req, _ := http.NewRequest("GET", "/api/conversations", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("no messages yields an empty list, not null", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		mockStore.On("ListMessagesFor", viewerID).Return([]*models.Message{}, nil).Once()

		req, _ := http.NewRequest("GET", "/api/conversations", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})
}

func TestGetThread(t *testing.T) {
	t.Run("returns the thread and marks it read", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		partnerID := uuid.New()
		thread := []*models.Message{
			{ID: uuid.New(), SenderID: partnerID, RecipientID: viewerID, Content: "hello", CreatedAt: time.Now().Add(-time.Hour)},
			{ID: uuid.New(), SenderID: viewerID, RecipientID: partnerID, Content: "hi back", CreatedAt: time.Now()},
		}

		mockStore.On("ListThread", viewerID, partnerID).Return(thread, nil).Once()
		mockStore.On("MarkThreadRead", viewerID, partnerID).Return(int64(1), nil).Once()

		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/conversations/%s", partnerID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Len(t, response, 2)

		mockStore.AssertExpectations(t)
	})

	t.Run("invalid partner id", func(t *testing.T) {
		router, _, _, _ := setupMessageTest(t)

		req, _ := http.NewRequest("GET", "/api/conversations/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fetch failure leaves read state untouched", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		partnerID := uuid.New()
		mockStore.On("ListThread", viewerID, partnerID).Return(nil, fmt.Errorf("timeout")).Once()

		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/conversations/%s", partnerID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		mockStore.AssertNotCalled(t, "MarkThreadRead", mock.Anything, mock.Anything)
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("successful send notifies the recipient", func(t *testing.T) {
		router, mockStore, mockNotifier, viewerID := setupMessageTest(t)

		recipientID := uuid.New()
		expected := &models.Message{
			ID:          uuid.New(),
			SenderID:    viewerID,
			RecipientID: recipientID,
			Content:     "Hello!",
			CreatedAt:   time.Now().UTC(),
		}

		mockStore.On("AppendMessage", viewerID, recipientID, "Hello!").Return(expected, nil).Once()
		mockNotifier.On("NotifyNewMessage", recipientID, expected).Once()

		body, _ := json.Marshal(map[string]interface{}{
			"recipient_id": recipientID.String(),
			"content":      "Hello!",
		})
		req, _ := http.NewRequest("POST", "/api/messages", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, expected.ID.String(), response["id"])
		assert.Equal(t, expected.Content, response["content"])

		mockStore.AssertExpectations(t)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("whitespace-only content never reaches the store", func(t *testing.T) {
		router, mockStore, mockNotifier, _ := setupMessageTest(t)

		body, _ := json.Marshal(map[string]interface{}{
			"recipient_id": uuid.New().String(),
			"content":      "   \n\t  ",
		})
		req, _ := http.NewRequest("POST", "/api/messages", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockStore.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
		mockNotifier.AssertNotCalled(t, "NotifyNewMessage", mock.Anything, mock.Anything)
	})

	t.Run("missing recipient id", func(t *testing.T) {
		router, _, _, _ := setupMessageTest(t)

		body, _ := json.Marshal(map[string]interface{}{"content": "Hello!"})
		req, _ := http.NewRequest("POST", "/api/messages", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure surfaces so input can be retried", func(t *testing.T) {
		router, mockStore, mockNotifier, viewerID := setupMessageTest(t)

		recipientID := uuid.New()
		mockStore.On("AppendMessage", viewerID, recipientID, "Hello!").Return(nil, fmt.Errorf("connection refused")).Once()

		body, _ := json.Marshal(map[string]interface{}{
			"recipient_id": recipientID.String(),
			"content":      "Hello!",
		})
		req, _ := http.NewRequest("POST", "/api/messages", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockNotifier.AssertNotCalled(t, "NotifyNewMessage", mock.Anything, mock.Anything)
	})

	t.Run("recipient not found", func(t *testing.T) {
		router, mockStore, _, viewerID := setupMessageTest(t)

		recipientID := uuid.New()
		mockStore.On("AppendMessage", viewerID, recipientID, "Hello!").Return(nil, database.ErrUserNotFound).Once()

		body, _ := json.Marshal(map[string]interface{}{
			"recipient_id": recipientID.String(),
			"content":      "Hello!",
		})
		req, _ := http.NewRequest("POST", "/api/messages", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
