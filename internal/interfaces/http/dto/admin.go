package dto

import "time"

// AdminLoginRequest is the body of POST /internal/admin/session
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// AdminSessionResponse describes the session that was issued
type AdminSessionResponse struct {
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
