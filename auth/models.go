package auth

import "time"

// Role scopes what an operator may do in the dashboard.
type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

// Operator is a back-office user of the analytics dashboard. It mirrors the
// operators table and carries no JSON annotations so different presentation
// layers can reuse it.
type Operator struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains operator registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains operator login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
