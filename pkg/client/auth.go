package client

import (
	"context"
	"time"
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	AvatarURL     string    `json:"avatar_url"`
	Bio           string    `json:"bio"`
	Role          string    `json:"role"`
	FollowerCount int64     `json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u User) IsCreator() bool {
	return u.Role == "creator"
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register creates an account and starts its session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp authResponse
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login starts a session. The server sets the session cookie, which the jar keeps.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout ends the session on the server and forgets the cookie locally either way.
func (c *Client) Logout(ctx context.Context) error {
	defer c.ClearSession()
	return c.post(ctx, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
