package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

const pathCollection = "/api/PromptCollection"

func (c *Client) CreateCollection(ctx context.Context, in CollectionRequest) (*Collection, error) {
	var out Collection
	if err := c.Do(ctx, http.MethodPost, pathCollection, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCollection(ctx context.Context, id string) (*Collection, error) {
	var out Collection
	if err := c.Do(ctx, http.MethodGet, pathCollection+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id string, in CollectionRequest) (*Collection, error) {
	var out Collection
	if err := c.Do(ctx, http.MethodPut, pathCollection+"/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, pathCollection+"/"+url.PathEscape(id), nil, nil)
}

// MyCollections lists the signed-in user's collections.
func (c *Client) MyCollections(ctx context.Context) ([]Collection, error) {
	out := []Collection{}
	if err := c.Do(ctx, http.MethodGet, pathCollection+"/me", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
