// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/blog-api/internal/media"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// SignupRequest carries the multipart signup fields. Role may only be empty
// or "user"; administrators are provisioned separately.
type SignupRequest struct {
	Name     string `validate:"required,min=1,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=128"`
	Role     string `validate:"omitempty,oneof=user admin"`
	Contact  string `validate:"omitempty,max=100"`
	Image    *media.Upload
}

type ProvisionAdminRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Contact  string `json:"contact"  validate:"omitempty,max=100"`
}

type UserResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Contact         string    `json:"contact"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Role        string       `json:"role"`
	UserID      string       `json:"user_id"`
	User        UserResponse `json:"user"`
}

func ToUserResponse(u *UserInfo) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Contact:   u.Contact,
		CreatedAt: u.CreatedAt,
	}
	if u.HasProfileImage {
		resp.ProfileImageURL = media.ImageURL(media.KindProfile, u.ID)
	}
	return resp
}
