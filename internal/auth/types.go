package auth

import "errors"

// Role identifies what an authenticated caller may do.
type Role string

const (
	// RoleViewer has read-only access: remotes, keymaps, history.
	RoleViewer Role = "viewer"

	// RoleAdmin has full control: create and destroy remotes and keymaps,
	// rewrite attributes, prune history.
	RoleAdmin Role = "admin"
)

// User is the authenticated identity carried in token claims.
//
// IRLogic has no user store; the admin identity comes from config.yaml
// and viewers are minted on demand.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Sentinel errors for authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)
