// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/blog-api/internal/policy"
)

type User struct {
	ID              string    `db:"id"`
	Email           string    `db:"email"`
	PasswordHash    string    `db:"password_hash"`
	Name            string    `db:"name"`
	Role            string    `db:"role"`
	Contact         string    `db:"contact"`
	ProfileImageKey *string   `db:"profile_image_key"`
	TokenVersion    int       `db:"token_version"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == policy.RoleAdmin
}

func (u *User) HasProfileImage() bool {
	return u.ProfileImageKey != nil && *u.ProfileImageKey != ""
}

func ValidRole(role string) bool {
	return role == policy.RoleUser || role == policy.RoleAdmin
}
