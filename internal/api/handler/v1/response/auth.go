package response

import "github.com/roundmeet/roundmeet-api/internal/domain"

type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
