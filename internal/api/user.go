package api

import "time"

// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email" example:"staff@example.com"`
	Name     string `json:"name" form:"name" validate:"max=100" example:"Alice"`
	Password string `json:"password" form:"password" validate:"required,min=8" example:"Secret123!"`
}

// swagger:model api.UpdateMyPasswordRequest
type UpdateMyPasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required" example:"OldSecret123!"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8" example:"NewSecret456!"`
}

// swagger:model api.UserResponse
type UserResponse struct {
	ID        string    `json:"id" example:"5b0c3f9e-2f7a-4c1e-9a3e-0d6f3f1c2b7a"`
	Email     string    `json:"email" example:"staff@example.com"`
	Name      string    `json:"name" example:"Alice"`
	Role      string    `json:"role" example:"user"`
	CreatedAt time.Time `json:"created_at"`
}
