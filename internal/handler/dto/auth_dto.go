package dto

import "time"

type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Source      string    `json:"source"`
}
