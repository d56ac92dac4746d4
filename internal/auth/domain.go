package auth

import "context"

// LoginRequest carries the operator's backend credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResult is the backend answer to a successful login.
type LoginResult struct {
	Token    string `json:"token" validate:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Gateway authenticates against the remote backend.
type Gateway interface {
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
}
