package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/middleware"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// profileResponse is the caller's account with the actions it may perform.
type profileResponse struct {
	*models.User
	Permissions []string `json:"permissions"`
}

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	userCollection db.UserCollection
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userCollection db.UserCollection) *ProfileHandler {
	return &ProfileHandler{userCollection: userCollection}
}

var allActions = []string{
	models.ActionViewReports,
	models.ActionViewCosts,
	models.ActionViewDocuments,
	models.ActionRefreshStatus,
	models.ActionManageUsers,
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	perms := []string{}
	for _, a := range allActions {
		if user.HasPermission(a) {
			perms = append(perms, a)
		}
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user, Permissions: perms})
}
