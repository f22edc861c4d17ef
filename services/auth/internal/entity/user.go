package entity

import "time"

type UserRole string

const (
	RoleViewer  UserRole = "viewer"
	RoleCreator UserRole = "creator"
)

func (r UserRole) Valid() bool {
	return r == RoleViewer || r == RoleCreator
}

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Password      string    `json:"-"`
	AvatarURL     string    `json:"avatar_url"`
	Bio           string    `json:"bio"`
	Role          UserRole  `json:"role"`
	FollowerCount int64     `json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
