package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

const pathUser = "/api/User"

func (c *Client) CreateUser(ctx context.Context, in RegisterRequest) (*User, error) {
	var out User
	if err := c.Do(ctx, http.MethodPost, pathUser, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser returns the user the access token belongs to, as the backend
// sees it.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.Do(ctx, http.MethodGet, pathUser, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	if err := c.Do(ctx, http.MethodGet, pathUser+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	var out User
	if err := c.Do(ctx, http.MethodPut, pathUser, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, pathUser, nil, nil)
}
