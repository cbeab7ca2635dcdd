package api

import "time"

// swagger:model api.LoginRequest
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email" example:"admin@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"Secret123!"`
}

// swagger:model api.LoginResponse
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// swagger:model api.SessionResponse
type SessionResponse struct {
	ID        string    `json:"id" example:"5b0c3f9e-2f7a-4c1e-9a3e-0d6f3f1c2b7a"`
	Role      string    `json:"role" example:"admin"`
	ExpiresAt time.Time `json:"expires_at"`
}
