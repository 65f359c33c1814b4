package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleDriver     Role = "driver"
	RoleViewer     Role = "viewer"
)

// Actions checked by the HTTP layer.
const (
	ActionViewReports   = "view_reports"
	ActionViewCosts     = "view_costs"
	ActionViewDocuments = "view_documents"
	ActionRefreshStatus = "refresh_status"
	ActionManageUsers   = "manage_users"
)

// User represents a user in the system. Accounts are managed by the
// identity service; this service only reads them.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Role      Role               `bson:"role" json:"role"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleTechnician, RoleDriver, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return RoleAllows(u.Role, action)
}

// RoleAllows is the permission table behind HasPermission.
func RoleAllows(role Role, action string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionManageUsers
	case RoleTechnician:
		return action == ActionViewDocuments || action == ActionViewReports
	case RoleViewer:
		return action == ActionViewReports || action == ActionViewCosts || action == ActionViewDocuments
	case RoleDriver:
		return action == ActionViewDocuments
	default:
		return false
	}
}
