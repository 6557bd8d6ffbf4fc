package identity

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfilePatch carries the caller-editable fields of a User. Nil fields are
// left unchanged by UpdateProfile.
type ProfilePatch struct {
	Name      *string
	AvatarURL *string
}
