package clinicapi

import (
	"context"
	"net/url"

	"careline/internal/models"
)

const (
	opGetUser    = "get_user"
	opListUsers  = "list_users"
	opUpdateUser = "update_user"
	opDeleteUser = "delete_user"
)

// UserPatch carries the fields PUT /users/:id accepts. Pointers distinguish
// "leave unchanged" from "set to empty".
type UserPatch struct {
	UserName *string `json:"userName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// Users lists all users. Backend restricts this to staff roles.
func (c *Client) Users(ctx context.Context, userID int64) ([]models.User, error) {
	var users []models.User
	if err := c.doGet(ctx, userID, "/users", opListUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// User fetches a single profile by backend id.
func (c *Client) User(ctx context.Context, userID int64, id string) (*models.User, error) {
	var user models.User
	if err := c.doGet(ctx, userID, "/users/"+url.PathEscape(id), opGetUser, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial profile update and returns the new profile.
func (c *Client) UpdateUser(ctx context.Context, userID int64, id string, patch UserPatch) (*models.User, error) {
	var user models.User
	if err := c.doPut(ctx, userID, "/users/"+url.PathEscape(id), opUpdateUser, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the account.
func (c *Client) DeleteUser(ctx context.Context, userID int64, id string) error {
	return c.doDelete(ctx, userID, "/users/"+url.PathEscape(id), opDeleteUser)
}
