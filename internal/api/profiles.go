package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/database"
	"github.com/rootedtogether/rooted/internal/models"
)

// ProfileHandler serves the discovery view and public profile lookups.
type ProfileHandler struct {
	DB database.Store
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(db database.Store) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

// Search lists gardeners matching the discovery filters.
func (h *ProfileHandler) Search(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	profiles, err := h.DB.SearchProfiles(database.ProfileFilter{
		GrowingZone:     c.Query("growing_zone"),
		ExperienceLevel: c.Query("experience_level"),
		Query:           c.Query("q"),
		Exclude:         viewerID,
		Limit:           limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search profiles"})
		return
	}

	if profiles == nil {
		profiles = []*models.ProfileSummary{}
	}
	c.JSON(http.StatusOK, profiles)
}

// Get returns one gardener's public profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	profile, err := h.DB.GetProfile(profileID)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
