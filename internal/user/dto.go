// AngelaMos | 2026
// dto.go

package user

import (
	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/media"
)

// UpdateProfileRequest is a partial self-update. Nil fields are left alone.
type UpdateProfileRequest struct {
	Name     *string `validate:"omitempty,min=1,max=100"`
	Password *string `validate:"omitempty,min=8,max=128"`
	Contact  *string `validate:"omitempty,max=100"`
	Image    *media.Upload
}

func (r UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.Password == nil && r.Contact == nil &&
		r.Image == nil
}

// AdminUpdateRequest is a partial update of another account.
type AdminUpdateRequest struct {
	Name     *string `validate:"omitempty,min=1,max=100"`
	Email    *string `validate:"omitempty,email,max=255"`
	Password *string `validate:"omitempty,min=8,max=128"`
	Contact  *string `validate:"omitempty,max=100"`
	Role     *string `validate:"omitempty,oneof=user admin"`
	Image    *media.Upload
}

func (r AdminUpdateRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil &&
		r.Contact == nil && r.Role == nil && r.Image == nil
}

type UserListResponse struct {
	Users []auth.UserResponse `json:"users"`
	Total int                 `json:"total"`
}

func ToUserResponse(u *User) auth.UserResponse {
	return auth.ToUserResponse(toUserInfo(u))
}

func ToUserResponseList(users []User) []auth.UserResponse {
	responses := make([]auth.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		Role:            u.Role,
		Contact:         u.Contact,
		HasProfileImage: u.HasProfileImage(),
		TokenVersion:    u.TokenVersion,
		CreatedAt:       u.CreatedAt,
	}
}
